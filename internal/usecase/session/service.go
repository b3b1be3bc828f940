package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
	"github.com/kailas-cloud/crawlscope/internal/domain/term"
	"github.com/kailas-cloud/crawlscope/internal/keylock"
	"github.com/kailas-cloud/crawlscope/internal/logger"
	"github.com/kailas-cloud/crawlscope/internal/metrics"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

// Limits bounds what a session may request.
type Limits struct {
	DefaultPageCap  int
	MaxPageCap      int
	DefaultMaxTerms int
	ContextSnippets int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		DefaultPageCap:  domsession.DefaultPageCountCap,
		MaxPageCap:      10000,
		DefaultMaxTerms: 50,
		ContextSnippets: 10,
	}
}

var pageFields = []string{
	record.FieldURL, record.FieldTag, record.FieldRetrieved,
	record.FieldX, record.FieldY, record.FieldPhase,
}

// Service orchestrates an operator's exploration of a crawl dataset.
// Mutations of one session are serialized; reads work on a snapshot.
type Service struct {
	sessions  Store
	registry  Registry
	docs      Documents
	ranker    Ranker
	projector Projector
	tagger    Tagger
	summaries Summarizer

	limits Limits
	locks  *keylock.Mutex
	newID  func() string
}

// New creates a session orchestrator.
func New(
	sessions Store,
	registry Registry,
	docs Documents,
	ranker Ranker,
	projector Projector,
	tagger Tagger,
	summaries Summarizer,
) *Service {
	return &Service{
		sessions:  sessions,
		registry:  registry,
		docs:      docs,
		ranker:    ranker,
		projector: projector,
		tagger:    tagger,
		summaries: summaries,
		limits:    DefaultLimits(),
		locks:     keylock.New(),
		newID:     uuid.NewString,
	}
}

// WithLimits overrides the default limits. Zero fields keep their defaults.
func (s *Service) WithLimits(l Limits) *Service {
	d := DefaultLimits()
	if l.DefaultPageCap <= 0 {
		l.DefaultPageCap = d.DefaultPageCap
	}
	if l.MaxPageCap <= 0 {
		l.MaxPageCap = d.MaxPageCap
	}
	if l.DefaultMaxTerms <= 0 {
		l.DefaultMaxTerms = d.DefaultMaxTerms
	}
	if l.ContextSnippets <= 0 {
		l.ContextSnippets = d.ContextSnippets
	}
	s.limits = l
	return s
}

// Open starts a session with no dataset selected.
func (s *Service) Open(ctx context.Context) (domsession.State, error) {
	st := domsession.New(s.newID(), s.limits.DefaultPageCap)
	if err := s.sessions.Save(ctx, st); err != nil {
		return domsession.State{}, fmt.Errorf("open session: %w", err)
	}
	metrics.SessionsOpenedTotal.Inc()
	logger.FromContext(ctx).Info("Session opened", zap.String("session", st.ID()))
	return st, nil
}

// Get returns the current state of a session.
func (s *Service) Get(ctx context.Context, id string) (domsession.State, error) {
	return s.sessions.Get(ctx, id)
}

// SwitchActiveDataset selects a registered dataset and clears the filter.
func (s *Service) SwitchActiveDataset(ctx context.Context, id, dataset string) (domsession.State, error) {
	if _, err := s.registry.Get(ctx, dataset); err != nil {
		return domsession.State{}, fmt.Errorf("switch dataset %q: %w", dataset, err)
	}
	st, err := s.mutate(ctx, id, func(st domsession.State) (domsession.State, error) {
		return st.SwitchDataset(dataset), nil
	})
	if err != nil {
		return domsession.State{}, err
	}
	logger.FromContext(ctx).Info("Dataset switched",
		zap.String("session", id),
		zap.String("dataset", dataset),
	)
	return st, nil
}

// ApplyFilter restricts listings to pages matching text. Empty text leaves
// the current filter in place; use ClearFilter to drop it.
func (s *Service) ApplyFilter(ctx context.Context, id, text string) (domsession.State, error) {
	f, err := filter.Parse(text)
	if err != nil {
		return domsession.State{}, err
	}
	return s.mutate(ctx, id, func(st domsession.State) (domsession.State, error) {
		return st.ApplyFilter(f), nil
	})
}

// ClearFilter drops the active filter.
func (s *Service) ClearFilter(ctx context.Context, id string) (domsession.State, error) {
	return s.mutate(ctx, id, func(st domsession.State) (domsession.State, error) {
		return st.ClearFilter(), nil
	})
}

// SetPageCountCap sets how many pages ListPages returns.
func (s *Service) SetPageCountCap(ctx context.Context, id string, n int) (domsession.State, error) {
	if n <= 0 || n > s.limits.MaxPageCap {
		return domsession.State{}, fmt.Errorf("page count cap %d outside [1, %d]: %w",
			n, s.limits.MaxPageCap, domain.ErrInvalidConfig)
	}
	return s.mutate(ctx, id, func(st domsession.State) (domsession.State, error) {
		return st.WithPageCountCap(n)
	})
}

// ListPages returns the most recently retrieved pages of the active dataset,
// placed on the 2-D map, with the newest retrieval time.
func (s *Service) ListPages(ctx context.Context, id string) (page.Listing, error) {
	st, err := s.active(ctx, id)
	if err != nil {
		return page.Listing{}, err
	}
	ds := st.ActiveDataset()

	recs, err := s.docs.FindMostRecent(ctx, ds, record.DocTypePage, st.PageCountCap(), pageFields, st.ActiveFilter())
	if err != nil {
		return page.Listing{}, fmt.Errorf("list pages: %w", err)
	}
	if len(recs) == 0 {
		return page.Listing{Pages: []page.Page{}}, nil
	}

	pages := make([]page.Page, len(recs))
	for i, rec := range recs {
		pages[i] = toPage(ctx, rec)
	}
	pages, err = s.projector.Project(ctx, ds, pages)
	if err != nil {
		return page.Listing{}, fmt.Errorf("project pages: %w", err)
	}

	var listing page.Listing
	listing.Pages = pages
	for _, p := range pages {
		if p.RetrievedAt().After(listing.LastRetrievedAt) {
			listing.LastRetrievedAt = p.RetrievedAt()
		}
	}
	return listing, nil
}

// ListTopTerms ranks terms over the pages tagged Relevant, or over every page
// when none are tagged yet (with a zero positive baseline). Each term carries
// its frequency within Relevant and Irrelevant pages and its own tags.
// Fewer than 2 candidate pages give an empty list.
func (s *Service) ListTopTerms(ctx context.Context, id string, maxTerms int) ([]term.Summary, error) {
	st, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	ds := st.ActiveDataset()
	if maxTerms <= 0 {
		maxTerms = s.limits.DefaultMaxTerms
	}

	pos, err := s.docs.FindTagged(ctx, ds, record.DocTypePage, tagset.Relevant)
	if err != nil {
		return nil, fmt.Errorf("relevant pages: %w", err)
	}
	fallback := len(pos) == 0
	if fallback {
		if pos, err = s.docs.FindAllIDs(ctx, ds, record.DocTypePage); err != nil {
			return nil, fmt.Errorf("all pages: %w", err)
		}
	}
	if len(pos) < 2 {
		return []term.Summary{}, nil
	}

	terms, err := s.ranker.RankTerms(ctx, ds, pos, maxTerms)
	if errors.Is(err, domain.ErrDegenerate) {
		logger.FromContext(ctx).Debug("Term ranking skipped", zap.String("dataset", ds), zap.Error(err))
		return []term.Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rank terms: %w", err)
	}
	if len(terms) == 0 {
		return []term.Summary{}, nil
	}

	var (
		posFreq, negFreq map[string]int
		tagged           map[string]record.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	if !fallback {
		g.Go(func() error {
			var err error
			posFreq, err = s.ranker.TotalTermFrequency(gctx, ds, pos)
			return err
		})
	}
	g.Go(func() error {
		neg, err := s.docs.FindTagged(gctx, ds, record.DocTypePage, tagset.Irrelevant)
		if err != nil || len(neg) < 2 {
			return err
		}
		negFreq, err = s.ranker.TotalTermFrequency(gctx, ds, neg)
		return err
	})
	g.Go(func() error {
		var err error
		tagged, err = s.docs.FindByField(gctx, ds, record.DocTypeTerm, record.FieldTerm, terms,
			[]string{record.FieldTerm, record.FieldTag})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("term frequencies: %w", err)
	}

	out := make([]term.Summary, len(terms))
	for i, t := range terms {
		out[i] = term.Summary{
			Term:              t,
			PositiveFrequency: posFreq[t],
			NegativeFrequency: negFreq[t],
			Tags:              tagged[t].Tags(),
		}
	}
	return out, nil
}

// TagPages adds or removes tag on pages of the active dataset.
func (s *Service) TagPages(ctx context.Context, id string, urls []string, tag string, add bool) (tagging.Plan, error) {
	return s.tag(ctx, id, record.DocTypePage, urls, tag, add)
}

// TagTerms adds or removes tag on terms of the active dataset.
func (s *Service) TagTerms(ctx context.Context, id string, terms []string, tag string, add bool) (tagging.Plan, error) {
	return s.tag(ctx, id, record.DocTypeTerm, terms, tag, add)
}

func (s *Service) tag(
	ctx context.Context, id string, kind record.DocType, ids []string, tag string, add bool,
) (tagging.Plan, error) {
	if err := tagset.ValidateLabel(tag); err != nil {
		return tagging.Plan{}, err
	}
	st, err := s.active(ctx, id)
	if err != nil {
		return tagging.Plan{}, err
	}
	return s.tagger.Apply(ctx, st.ActiveDataset(), kind, ids, tag, add)
}

// GetTermContext returns a term's own tags and text snippets from pages that
// mention it.
func (s *Service) GetTermContext(ctx context.Context, id, word string) (term.Context, error) {
	if word == "" {
		return term.Context{}, fmt.Errorf("empty term: %w", domain.ErrNotFound)
	}
	st, err := s.active(ctx, id)
	if err != nil {
		return term.Context{}, err
	}
	ds := st.ActiveDataset()

	out := term.Context{Term: word}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.docs.FindByField(gctx, ds, record.DocTypeTerm, record.FieldTerm, []string{word},
			[]string{record.FieldTerm, record.FieldTag})
		if err != nil {
			return err
		}
		out.Tags = found[word].Tags()
		return nil
	})
	g.Go(func() error {
		var err error
		out.Snippets, err = s.docs.Context(gctx, ds, word, s.limits.ContextSnippets)
		return err
	})
	if err := g.Wait(); err != nil {
		return term.Context{}, fmt.Errorf("term context %q: %w", word, err)
	}
	if out.Snippets == nil {
		out.Snippets = map[string]string{}
	}
	return out, nil
}

// PageSummary counts pages of the active dataset retrieved inside w by
// relevance bucket.
func (s *Service) PageSummary(
	ctx context.Context, id string, w domsummary.Window, applyFilter bool,
) (domsummary.CountsByLabel, error) {
	st, err := s.active(ctx, id)
	if err != nil {
		return domsummary.CountsByLabel{}, err
	}
	return s.summaries.PageSummary(ctx, st.ActiveDataset(), w, st.ActiveFilter(), applyFilter)
}

// CrawlSummary counts relevant and irrelevant pages of the active dataset
// retrieved inside w by crawl phase.
func (s *Service) CrawlSummary(
	ctx context.Context, id string, w domsummary.Window, applyFilter bool,
) (domsummary.CrawlCounts, error) {
	st, err := s.active(ctx, id)
	if err != nil {
		return domsummary.CrawlCounts{}, err
	}
	return s.summaries.CrawlSummary(ctx, st.ActiveDataset(), w, st.ActiveFilter(), applyFilter)
}

// ListDatasets returns every registered dataset.
func (s *Service) ListDatasets(ctx context.Context) ([]domds.Dataset, error) {
	return s.registry.List(ctx)
}

// BoostPages marks stored pages of the active dataset as boosted and returns
// how many were marked. Unknown URLs are skipped.
func (s *Service) BoostPages(ctx context.Context, id string, urls []string) (int, error) {
	st, err := s.active(ctx, id)
	if err != nil {
		return 0, err
	}
	ds := st.ActiveDataset()
	if len(urls) == 0 {
		return 0, nil
	}

	found, err := s.docs.FindByField(ctx, ds, record.DocTypePage, record.FieldURL, urls, []string{record.FieldURL})
	if err != nil {
		return 0, fmt.Errorf("boost pages: %w", err)
	}

	seen := make(map[string]struct{}, len(found))
	recs := make([]record.Record, 0, len(found))
	for _, u := range urls {
		if _, ok := found[u]; !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		recs = append(recs, record.New(u, map[string]string{
			record.FieldURL:   u,
			record.FieldPhase: string(page.PhaseBoosted),
		}))
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := s.docs.Update(ctx, recs, record.FieldURL, ds, record.DocTypePage); err != nil {
		return 0, fmt.Errorf("boost pages: %w", err)
	}

	logger.FromContext(ctx).Info("Pages boosted",
		zap.String("dataset", ds),
		zap.Int("requested", len(urls)),
		zap.Int("boosted", len(recs)),
	)
	return len(recs), nil
}

// active loads a session snapshot that has a dataset selected.
func (s *Service) active(ctx context.Context, id string) (domsession.State, error) {
	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domsession.State{}, err
	}
	if !st.HasDataset() {
		return domsession.State{}, domain.ErrNoActiveDataset
	}
	return st, nil
}

// mutate applies fn to the stored state under the session's lock.
func (s *Service) mutate(
	ctx context.Context, id string, fn func(domsession.State) (domsession.State, error),
) (domsession.State, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domsession.State{}, err
	}
	next, err := fn(st)
	if err != nil {
		return domsession.State{}, err
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return domsession.State{}, err
	}
	return next, nil
}

func toPage(ctx context.Context, rec record.Record) page.Page {
	retrieved, _ := rec.Retrieved()
	x, _ := rec.Float(record.FieldX)
	y, _ := rec.Float(record.FieldY)
	raw, _ := rec.String(record.FieldPhase)
	ph, err := page.ParsePhase(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("Unknown page phase", zap.String("url", rec.ID()), zap.String("phase", raw))
		ph = page.PhaseExplored
	}
	return page.Reconstruct(rec.ID(), x, y, rec.Tags(), retrieved, ph)
}
