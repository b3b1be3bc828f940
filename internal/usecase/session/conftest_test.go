package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

// --- Mocks ---

type memStore struct {
	mu     sync.Mutex
	states map[string]domsession.State
	gets   int
	saves  int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]domsession.State)}
}

func (m *memStore) Get(_ context.Context, id string) (domsession.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	st, ok := m.states[id]
	if !ok {
		return domsession.State{}, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return st, nil
}

func (m *memStore) Save(_ context.Context, st domsession.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.states[st.ID()] = st
	return nil
}

func (m *memStore) put(st domsession.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.ID()] = st
}

type mockRegistry struct {
	datasets []domds.Dataset
}

func (m *mockRegistry) Get(_ context.Context, id string) (domds.Dataset, error) {
	for _, d := range m.datasets {
		if d.ID() == id {
			return d, nil
		}
	}
	return domds.Dataset{}, fmt.Errorf("dataset %q: %w", id, domain.ErrNotFound)
}

func (m *mockRegistry) List(_ context.Context) ([]domds.Dataset, error) {
	return m.datasets, nil
}

type mockDocs struct {
	findByFieldFn    func(docType record.DocType, field string, values []string) (map[string]record.Record, error)
	findMostRecentFn func(limit int, f filter.Filter) ([]record.Record, error)
	findAllIDsFn     func() ([]string, error)
	findTaggedFn     func(tag string) ([]string, error)
	contextFn        func(term string, limit int) (map[string]string, error)
	updateFn         func(recs []record.Record, keyField string) error
}

func (m *mockDocs) FindByField(
	_ context.Context, _ string, docType record.DocType, field string, values, _ []string,
) (map[string]record.Record, error) {
	if m.findByFieldFn != nil {
		return m.findByFieldFn(docType, field, values)
	}
	return map[string]record.Record{}, nil
}

func (m *mockDocs) FindMostRecent(
	_ context.Context, _ string, _ record.DocType, limit int, _ []string, f filter.Filter,
) ([]record.Record, error) {
	if m.findMostRecentFn != nil {
		return m.findMostRecentFn(limit, f)
	}
	return nil, nil
}

func (m *mockDocs) FindAllIDs(_ context.Context, _ string, _ record.DocType) ([]string, error) {
	if m.findAllIDsFn != nil {
		return m.findAllIDsFn()
	}
	return nil, nil
}

func (m *mockDocs) FindTagged(_ context.Context, _ string, _ record.DocType, tag string) ([]string, error) {
	if m.findTaggedFn != nil {
		return m.findTaggedFn(tag)
	}
	return nil, nil
}

func (m *mockDocs) Context(_ context.Context, _, term string, limit int) (map[string]string, error) {
	if m.contextFn != nil {
		return m.contextFn(term, limit)
	}
	return nil, nil
}

func (m *mockDocs) Update(_ context.Context, recs []record.Record, keyField, _ string, _ record.DocType) error {
	if m.updateFn != nil {
		return m.updateFn(recs, keyField)
	}
	return nil
}

type mockRanker struct {
	rankFn func(urls []string, limit int) ([]string, error)
	ttfFn  func(urls []string) (map[string]int, error)

	mu       sync.Mutex
	ttfCalls [][]string
}

func (m *mockRanker) RankTerms(_ context.Context, _ string, urls []string, limit int) ([]string, error) {
	if m.rankFn != nil {
		return m.rankFn(urls, limit)
	}
	return nil, nil
}

func (m *mockRanker) TotalTermFrequency(_ context.Context, _ string, urls []string) (map[string]int, error) {
	m.mu.Lock()
	m.ttfCalls = append(m.ttfCalls, urls)
	m.mu.Unlock()
	if m.ttfFn != nil {
		return m.ttfFn(urls)
	}
	return map[string]int{}, nil
}

type mockProjector struct {
	calls int
	fn    func(pages []page.Page) ([]page.Page, error)
}

func (m *mockProjector) Project(_ context.Context, _ string, pages []page.Page) ([]page.Page, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(pages)
	}
	return pages, nil
}

type tagCall struct {
	dataset string
	kind    record.DocType
	ids     []string
	tag     string
	add     bool
}

type mockTagger struct {
	calls []tagCall
}

func (m *mockTagger) Apply(
	_ context.Context, dataset string, kind record.DocType, ids []string, tag string, add bool,
) (tagging.Plan, error) {
	m.calls = append(m.calls, tagCall{dataset: dataset, kind: kind, ids: ids, tag: tag, add: add})
	return tagging.Plan{}, nil
}

type summaryCall struct {
	dataset     string
	filter      filter.Filter
	applyFilter bool
}

type mockSummarizer struct {
	calls []summaryCall
}

func (m *mockSummarizer) PageSummary(
	_ context.Context, dataset string, _ domsummary.Window, active filter.Filter, applyFilter bool,
) (domsummary.CountsByLabel, error) {
	m.calls = append(m.calls, summaryCall{dataset: dataset, filter: active, applyFilter: applyFilter})
	return domsummary.CountsByLabel{Relevant: 2, Neutral: 1}, nil
}

func (m *mockSummarizer) CrawlSummary(
	_ context.Context, dataset string, _ domsummary.Window, active filter.Filter, applyFilter bool,
) (domsummary.CrawlCounts, error) {
	m.calls = append(m.calls, summaryCall{dataset: dataset, filter: active, applyFilter: applyFilter})
	return domsummary.CrawlCounts{}, nil
}

// --- Fixture ---

type fixture struct {
	store     *memStore
	registry  *mockRegistry
	docs      *mockDocs
	ranker    *mockRanker
	projector *mockProjector
	tagger    *mockTagger
	summaries *mockSummarizer
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		store: newMemStore(),
		registry: &mockRegistry{datasets: []domds.Dataset{
			domds.Reconstruct("ebola", "Ebola outbreak", time.Unix(1432310403, 0)),
			domds.Reconstruct("zika", "Zika", time.Unix(1432310500, 0)),
		}},
		docs:      &mockDocs{},
		ranker:    &mockRanker{},
		projector: &mockProjector{},
		tagger:    &mockTagger{},
		summaries: &mockSummarizer{},
	}
	f.svc = New(f.store, f.registry, f.docs, f.ranker, f.projector, f.tagger, f.summaries).
		WithLimits(Limits{MaxPageCap: 5000})
	f.svc.newID = func() string { return "s1" }
	return f
}

// withDataset stores session s1 with dataset selected.
func (f *fixture) withDataset(dataset string) {
	f.store.put(domsession.New("s1", 0).SwitchDataset(dataset))
}

func pageRecord(url string, retrieved int64, tags string) record.Record {
	return record.New(url, map[string]string{
		record.FieldURL:       url,
		record.FieldRetrieved: record.FormatEpoch(time.Unix(retrieved, 0)),
		record.FieldTag:       tags,
	})
}
