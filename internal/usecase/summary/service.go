package summary

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/logger"
)

// Service aggregates tagged pages over retrieval-time windows.
type Service struct {
	finder RangeFinder
	now    func() time.Time
}

// New creates a summary aggregator.
func New(finder RangeFinder) *Service {
	return &Service{finder: finder, now: time.Now}
}

// WithClock overrides the time source used to close open windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PageSummary counts pages retrieved inside w by relevance bucket. The active
// filter restricts the count only when applyFilter is set.
func (s *Service) PageSummary(
	ctx context.Context, dataset string, w domsummary.Window, active filter.Filter, applyFilter bool,
) (domsummary.CountsByLabel, error) {
	recs, err := s.fetch(ctx, dataset, w, active, applyFilter, []string{record.FieldTag})
	if err != nil {
		return domsummary.CountsByLabel{}, fmt.Errorf("page summary: %w", err)
	}

	var counts domsummary.CountsByLabel
	for _, rec := range recs {
		counts.Add(rec.Tags())
	}
	return counts, nil
}

// CrawlSummary counts relevant and irrelevant pages retrieved inside w by
// crawl phase.
func (s *Service) CrawlSummary(
	ctx context.Context, dataset string, w domsummary.Window, active filter.Filter, applyFilter bool,
) (domsummary.CrawlCounts, error) {
	recs, err := s.fetch(ctx, dataset, w, active, applyFilter, []string{record.FieldTag, record.FieldPhase})
	if err != nil {
		return domsummary.CrawlCounts{}, fmt.Errorf("crawl summary: %w", err)
	}

	var counts domsummary.CrawlCounts
	for _, rec := range recs {
		raw, _ := rec.String(record.FieldPhase)
		ph, perr := page.ParsePhase(raw)
		if perr != nil {
			logger.FromContext(ctx).Warn("Unknown page phase counted as explored",
				zap.String("url", rec.ID()), zap.String("phase", raw))
			ph = page.PhaseExplored
		}
		counts.Add(rec.Tags(), ph)
	}
	return counts, nil
}

func (s *Service) fetch(
	ctx context.Context, dataset string, w domsummary.Window, active filter.Filter, applyFilter bool,
	fields []string,
) ([]record.Record, error) {
	w = w.Resolve(s.now())
	var f filter.Filter
	if applyFilter {
		f = active
	}
	return s.finder.FindInRange(ctx, dataset, record.DocTypePage, record.FieldRetrieved,
		record.Epoch(w.From), record.Epoch(w.To), fields, f)
}
