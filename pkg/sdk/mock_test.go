package crawlscope

import (
	"context"

	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/domain/term"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

// --- sessionUseCase mock ---

type mockSessionUC struct {
	openFn         func(ctx context.Context) (domsession.State, error)
	getFn          func(ctx context.Context, id string) (domsession.State, error)
	switchFn       func(ctx context.Context, id, dataset string) (domsession.State, error)
	applyFilterFn  func(ctx context.Context, id, text string) (domsession.State, error)
	clearFilterFn  func(ctx context.Context, id string) (domsession.State, error)
	setCapFn       func(ctx context.Context, id string, n int) (domsession.State, error)
	listPagesFn    func(ctx context.Context, id string) (page.Listing, error)
	listTermsFn    func(ctx context.Context, id string, maxTerms int) ([]term.Summary, error)
	tagPagesFn     func(ctx context.Context, id string, urls []string, tag string, add bool) (tagging.Plan, error)
	tagTermsFn     func(ctx context.Context, id string, terms []string, tag string, add bool) (tagging.Plan, error)
	termContextFn  func(ctx context.Context, id, word string) (term.Context, error)
	pageSummaryFn  func(ctx context.Context, id string, w domsummary.Window, apply bool) (domsummary.CountsByLabel, error)
	crawlSummaryFn func(ctx context.Context, id string, w domsummary.Window, apply bool) (domsummary.CrawlCounts, error)
	boostFn        func(ctx context.Context, id string, urls []string) (int, error)
}

func (m *mockSessionUC) Open(ctx context.Context) (domsession.State, error) {
	return m.openFn(ctx)
}

func (m *mockSessionUC) Get(ctx context.Context, id string) (domsession.State, error) {
	return m.getFn(ctx, id)
}

func (m *mockSessionUC) SwitchActiveDataset(ctx context.Context, id, dataset string) (domsession.State, error) {
	return m.switchFn(ctx, id, dataset)
}

func (m *mockSessionUC) ApplyFilter(ctx context.Context, id, text string) (domsession.State, error) {
	return m.applyFilterFn(ctx, id, text)
}

func (m *mockSessionUC) ClearFilter(ctx context.Context, id string) (domsession.State, error) {
	return m.clearFilterFn(ctx, id)
}

func (m *mockSessionUC) SetPageCountCap(ctx context.Context, id string, n int) (domsession.State, error) {
	return m.setCapFn(ctx, id, n)
}

func (m *mockSessionUC) ListPages(ctx context.Context, id string) (page.Listing, error) {
	return m.listPagesFn(ctx, id)
}

func (m *mockSessionUC) ListTopTerms(ctx context.Context, id string, maxTerms int) ([]term.Summary, error) {
	return m.listTermsFn(ctx, id, maxTerms)
}

func (m *mockSessionUC) TagPages(
	ctx context.Context, id string, urls []string, tag string, add bool,
) (tagging.Plan, error) {
	return m.tagPagesFn(ctx, id, urls, tag, add)
}

func (m *mockSessionUC) TagTerms(
	ctx context.Context, id string, terms []string, tag string, add bool,
) (tagging.Plan, error) {
	return m.tagTermsFn(ctx, id, terms, tag, add)
}

func (m *mockSessionUC) GetTermContext(ctx context.Context, id, word string) (term.Context, error) {
	return m.termContextFn(ctx, id, word)
}

func (m *mockSessionUC) PageSummary(
	ctx context.Context, id string, w domsummary.Window, apply bool,
) (domsummary.CountsByLabel, error) {
	return m.pageSummaryFn(ctx, id, w, apply)
}

func (m *mockSessionUC) CrawlSummary(
	ctx context.Context, id string, w domsummary.Window, apply bool,
) (domsummary.CrawlCounts, error) {
	return m.crawlSummaryFn(ctx, id, w, apply)
}

func (m *mockSessionUC) BoostPages(ctx context.Context, id string, urls []string) (int, error) {
	return m.boostFn(ctx, id, urls)
}

// --- datasetRegistry mock ---

type mockRegistry struct {
	registerFn func(ctx context.Context, ds domds.Dataset) (bool, error)
	getFn      func(ctx context.Context, id string) (domds.Dataset, error)
	listFn     func(ctx context.Context) ([]domds.Dataset, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockRegistry) Register(ctx context.Context, ds domds.Dataset) (bool, error) {
	return m.registerFn(ctx, ds)
}

func (m *mockRegistry) Get(ctx context.Context, id string) (domds.Dataset, error) {
	return m.getFn(ctx, id)
}

func (m *mockRegistry) List(ctx context.Context) ([]domds.Dataset, error) {
	return m.listFn(ctx)
}

func (m *mockRegistry) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- pageWriter mock ---

type mockPageWriter struct {
	batches [][]record.Record
	err     error
}

func (m *mockPageWriter) Create(_ context.Context, recs []record.Record, _ string, docType record.DocType) error {
	if docType != record.DocTypePage {
		panic("unexpected doc type " + string(docType))
	}
	m.batches = append(m.batches, recs)
	return m.err
}
