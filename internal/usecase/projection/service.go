package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/logger"
	"github.com/kailas-cloud/crawlscope/internal/metrics"
)

// dims is the number of display coordinates.
const dims = 2

// Outcomes recorded in the projection duration histogram.
const (
	outcomeProjected  = "projected"
	outcomeDegenerate = "degenerate"
	outcomeError      = "error"
)

// Service places pages on a 2-D map by term similarity.
type Service struct {
	adapter Adapter
}

// New creates a projection pipeline.
func New(adapter Adapter) *Service {
	return &Service{adapter: adapter}
}

// Project returns a copy of pages with coordinates taken from a 2-D reduction
// of their term-frequency vectors. Rows are matched to pages by position.
// Pages the reduction does not cover keep their prior coordinates.
func (s *Service) Project(ctx context.Context, dataset string, pages []page.Page) ([]page.Page, error) {
	start := time.Now()
	out := make([]page.Page, len(pages))
	copy(out, pages)
	if len(out) == 0 {
		return out, nil
	}

	outcome, err := s.project(ctx, dataset, out)
	metrics.ProjectionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if outcome == outcomeDegenerate {
		logger.FromContext(ctx).Debug("Projection skipped",
			zap.String("dataset", dataset),
			zap.Int("pages", len(out)),
		)
	}
	return out, nil
}

func (s *Service) project(ctx context.Context, dataset string, out []page.Page) (string, error) {
	m, err := s.adapter.TermFrequencyMatrix(ctx, dataset, page.URLs(out))
	if errors.Is(err, domain.ErrDegenerate) {
		return outcomeDegenerate, nil
	}
	if err != nil {
		return outcomeError, fmt.Errorf("term frequency matrix: %w", err)
	}
	if m.IsEmpty() {
		return outcomeDegenerate, nil
	}

	red, err := s.adapter.ReduceDimensions(m, dims)
	if err != nil {
		return outcomeError, fmt.Errorf("reduce dimensions: %w", err)
	}
	if len(red.Coords) == 0 {
		return outcomeDegenerate, nil
	}

	for i := range out {
		if i >= len(red.Coords) || len(red.Coords[i]) < dims {
			break
		}
		out[i] = out[i].WithCoords(red.Coords[i][0], red.Coords[i][1])
	}
	return outcomeProjected, nil
}
