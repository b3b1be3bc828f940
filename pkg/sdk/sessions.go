package crawlscope

import (
	"context"
	"fmt"
	"time"

	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
)

// SessionService runs exploration sessions. Every method except Open takes
// the session id returned by Open.
type SessionService struct {
	svc sessionUseCase
	obs *observer
}

// Open starts a session with no dataset selected.
func (s *SessionService) Open(ctx context.Context) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.open", start, err) }()

	st, err := s.svc.Open(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("open session: %w", err)
	}
	return fromInternalSession(st), nil
}

// Get returns the session state.
func (s *SessionService) Get(ctx context.Context, id string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.get", start, err) }()

	st, err := s.svc.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return fromInternalSession(st), nil
}

// SwitchDataset selects a registered dataset and clears the filter.
func (s *SessionService) SwitchDataset(ctx context.Context, id, dataset string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.switch_dataset", start, err) }()

	st, err := s.svc.SwitchActiveDataset(ctx, id, dataset)
	if err != nil {
		return Session{}, fmt.Errorf("switch dataset: %w", err)
	}
	return fromInternalSession(st), nil
}

// ApplyFilter sets the free-text filter. Empty text leaves the filter unchanged;
// use ClearFilter to drop it.
func (s *SessionService) ApplyFilter(ctx context.Context, id, text string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.apply_filter", start, err) }()

	st, err := s.svc.ApplyFilter(ctx, id, text)
	if err != nil {
		return Session{}, fmt.Errorf("apply filter: %w", err)
	}
	return fromInternalSession(st), nil
}

// ClearFilter drops the filter.
func (s *SessionService) ClearFilter(ctx context.Context, id string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.clear_filter", start, err) }()

	st, err := s.svc.ClearFilter(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("clear filter: %w", err)
	}
	return fromInternalSession(st), nil
}

// SetPageCountCap bounds how many pages ListPages returns.
func (s *SessionService) SetPageCountCap(ctx context.Context, id string, n int) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.set_page_cap", start, err) }()

	st, err := s.svc.SetPageCountCap(ctx, id, n)
	if err != nil {
		return Session{}, fmt.Errorf("set page count cap: %w", err)
	}
	return fromInternalSession(st), nil
}

// ListPages returns the most recently retrieved pages with map coordinates.
func (s *SessionService) ListPages(ctx context.Context, id string) (_ Listing, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.list_pages", start, err) }()

	l, err := s.svc.ListPages(ctx, id)
	if err != nil {
		return Listing{}, fmt.Errorf("list pages: %w", err)
	}
	return fromInternalListing(l), nil
}

// ListTopTerms ranks terms of the relevant pages. maxTerms <= 0 uses the default.
func (s *SessionService) ListTopTerms(ctx context.Context, id string, maxTerms int) (_ []Term, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.list_top_terms", start, err) }()

	ts, err := s.svc.ListTopTerms(ctx, id, maxTerms)
	if err != nil {
		return nil, fmt.Errorf("list top terms: %w", err)
	}
	return fromInternalTerms(ts), nil
}

// TagPages adds (add=true) or removes tag on the given pages.
func (s *SessionService) TagPages(
	ctx context.Context, id string, urls []string, tag string, add bool,
) (_ TagResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.tag_pages", start, err) }()

	plan, err := s.svc.TagPages(ctx, id, urls, tag, add)
	if err != nil {
		return TagResult{}, fmt.Errorf("tag pages: %w", err)
	}
	return fromInternalPlan(plan), nil
}

// TagTerms adds (add=true) or removes tag on the given terms.
func (s *SessionService) TagTerms(
	ctx context.Context, id string, terms []string, tag string, add bool,
) (_ TagResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.tag_terms", start, err) }()

	plan, err := s.svc.TagTerms(ctx, id, terms, tag, add)
	if err != nil {
		return TagResult{}, fmt.Errorf("tag terms: %w", err)
	}
	return fromInternalPlan(plan), nil
}

// TermContext returns a term's labels and text snippets around it.
func (s *SessionService) TermContext(ctx context.Context, id, word string) (_ TermContext, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.term_context", start, err) }()

	tc, err := s.svc.GetTermContext(ctx, id, word)
	if err != nil {
		return TermContext{}, fmt.Errorf("term context: %w", err)
	}
	snippets := tc.Snippets
	if snippets == nil {
		snippets = map[string]string{}
	}
	return TermContext{Term: tc.Term, Tags: labels(tc.Tags), Snippets: snippets}, nil
}

// PageSummary counts pages per relevance bucket inside w.
func (s *SessionService) PageSummary(
	ctx context.Context, id string, w Window, applyFilter bool,
) (_ PageSummary, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.page_summary", start, err) }()

	c, err := s.svc.PageSummary(ctx, id, domsummary.Window(w), applyFilter)
	if err != nil {
		return PageSummary{}, fmt.Errorf("page summary: %w", err)
	}
	return PageSummary{Relevant: c.Relevant, Irrelevant: c.Irrelevant, Neutral: c.Neutral}, nil
}

// CrawlSummary counts relevant and irrelevant pages per crawl phase inside w.
func (s *SessionService) CrawlSummary(
	ctx context.Context, id string, w Window, applyFilter bool,
) (_ CrawlSummary, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.crawl_summary", start, err) }()

	c, err := s.svc.CrawlSummary(ctx, id, domsummary.Window(w), applyFilter)
	if err != nil {
		return CrawlSummary{}, fmt.Errorf("crawl summary: %w", err)
	}
	return CrawlSummary{
		Positive: fromInternalPhaseCounts(c.Positive),
		Negative: fromInternalPhaseCounts(c.Negative),
	}, nil
}

// BoostPages marks the given pages as boosted. Returns how many were found.
func (s *SessionService) BoostPages(ctx context.Context, id string, urls []string) (_ int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.boost_pages", start, err) }()

	n, err := s.svc.BoostPages(ctx, id, urls)
	if err != nil {
		return 0, fmt.Errorf("boost pages: %w", err)
	}
	return n, nil
}
