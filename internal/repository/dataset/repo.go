package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/db"
	"github.com/kailas-cloud/crawlscope/internal/domain"
	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	"github.com/kailas-cloud/crawlscope/internal/repository/document"
)

// store is the consumer interface for the dataset registry (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
}

const (
	fieldID      = "id"
	fieldName    = "name"
	fieldCreated = "created"
)

// Repo is the registry of crawl datasets.
type Repo struct {
	store store
	ks    db.Keyspace
}

// New creates a dataset registry.
func New(s store, ks db.Keyspace) *Repo {
	return &Repo{store: s, ks: ks}
}

// Register stores the registry entry and makes sure the dataset's page and term
// indexes exist. Re-registering updates name and timestamp. Returns true when
// the entry is new.
func (r *Repo) Register(ctx context.Context, ds domds.Dataset) (bool, error) {
	key := r.ks.Registry(ds.ID())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: check dataset %s: %w", domain.ErrGatewayFailure, ds.ID(), err)
	}

	if err := r.store.HSet(ctx, key, toHash(ds)); err != nil {
		return false, fmt.Errorf("%w: hset dataset %s: %w", domain.ErrGatewayFailure, ds.ID(), err)
	}

	for _, def := range document.Indexes(r.ks, ds.ID()) {
		err := r.store.CreateIndex(ctx, def)
		if err == nil || errors.Is(err, db.ErrIndexExists) {
			continue
		}
		if !exists {
			createErr := fmt.Errorf("%w: create index %s: %w", domain.ErrGatewayFailure, def.Name, err)
			return false, errors.Join(createErr, r.store.Del(ctx, key))
		}
		return false, fmt.Errorf("%w: create index %s: %w", domain.ErrGatewayFailure, def.Name, err)
	}

	return !exists, nil
}

// Get returns a registered dataset.
func (r *Repo) Get(ctx context.Context, id string) (domds.Dataset, error) {
	m, err := r.store.HGetAll(ctx, r.ks.Registry(id))
	if err != nil {
		return domds.Dataset{}, fmt.Errorf("%w: hgetall dataset %s: %w", domain.ErrGatewayFailure, id, err)
	}
	if len(m) == 0 {
		return domds.Dataset{}, fmt.Errorf("dataset %q: %w", id, domain.ErrNotFound)
	}
	return fromHash(m), nil
}

// List returns every registered dataset, oldest first.
func (r *Repo) List(ctx context.Context) ([]domds.Dataset, error) {
	keys, err := r.store.Scan(ctx, r.ks.RegistryPattern())
	if err != nil {
		return nil, fmt.Errorf("%w: scan datasets: %w", domain.ErrGatewayFailure, err)
	}
	if len(keys) == 0 {
		return []domds.Dataset{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall multi datasets: %w", domain.ErrGatewayFailure, err)
	}

	out := make([]domds.Dataset, 0, len(results))
	for _, m := range results {
		if len(m) == 0 {
			continue
		}
		out = append(out, fromHash(m))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

// Delete removes the registry entry and drops the dataset's indexes. Stored
// pages and terms are left in place.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.ks.Registry(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: check dataset %s: %w", domain.ErrGatewayFailure, id, err)
	}
	if !exists {
		return fmt.Errorf("dataset %q: %w", id, domain.ErrNotFound)
	}

	for _, def := range document.Indexes(r.ks, id) {
		if err := r.store.DropIndex(ctx, def.Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("%w: drop index %s: %w", domain.ErrGatewayFailure, def.Name, err)
		}
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("%w: del dataset %s: %w", domain.ErrGatewayFailure, id, err)
	}
	return nil
}

func toHash(ds domds.Dataset) map[string]string {
	return map[string]string{
		fieldID:      ds.ID(),
		fieldName:    ds.Name(),
		fieldCreated: record.FormatEpoch(ds.CreatedAt()),
	}
}

func fromHash(m map[string]string) domds.Dataset {
	var created time.Time
	if f, err := strconv.ParseFloat(m[fieldCreated], 64); err == nil {
		created = record.FromEpoch(f)
	}
	return domds.Reconstruct(m[fieldID], m[fieldName], created)
}
