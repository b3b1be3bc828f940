package crawlscope

import (
	"context"
	"fmt"
	"time"

	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
)

// ingestBatch is the number of pages written per round trip.
const ingestBatch = 500

// DatasetService manages the dataset registry and loads pages.
type DatasetService struct {
	registry datasetRegistry
	pages    pageWriter
	obs      *observer
	now      func() time.Time
}

// Register stores a dataset and creates its search indexes. A zero createdAt
// means now. Returns true when the dataset is new.
func (s *DatasetService) Register(
	ctx context.Context, id, name string, createdAt time.Time,
) (_ bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.register", start, err) }()

	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	ds, err := domds.New(id, name, createdAt)
	if err != nil {
		return false, fmt.Errorf("register dataset: %w", err)
	}
	created, err := s.registry.Register(ctx, ds)
	if err != nil {
		return false, fmt.Errorf("register dataset: %w", err)
	}
	return created, nil
}

// List returns every registered dataset, oldest first.
func (s *DatasetService) List(ctx context.Context) (_ []Dataset, err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.list", start, err) }()

	list, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]Dataset, len(list))
	for i, ds := range list {
		out[i] = fromInternalDataset(ds)
	}
	return out, nil
}

// Remove unregisters a dataset and drops its indexes. Stored pages stay.
func (s *DatasetService) Remove(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.remove", start, err) }()

	if err = s.registry.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove dataset: %w", err)
	}
	return nil
}

// Ingest writes pages into a registered dataset. Pages with an existing URL
// are overwritten. Nothing is written when any page is invalid.
func (s *DatasetService) Ingest(ctx context.Context, dataset string, pages []PageInput) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("dataset.ingest", start, err) }()

	now := s.now().UTC()
	recs := make([]record.Record, len(pages))
	for i, p := range pages {
		rec, err := toRecord(p, now)
		if err != nil {
			return fmt.Errorf("ingest page %d: %w", i, err)
		}
		recs[i] = rec
	}

	if _, err = s.registry.Get(ctx, dataset); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	for _, chunk := range chunks(recs, ingestBatch) {
		if err = s.pages.Create(ctx, chunk, dataset, record.DocTypePage); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
	}
	return nil
}

func chunks[T any](items []T, size int) [][]T {
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
