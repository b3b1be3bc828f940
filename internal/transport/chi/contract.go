package chi

import (
	"context"

	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/domain/term"
	healthuc "github.com/kailas-cloud/crawlscope/internal/usecase/health"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

// Orchestrator is the session API served over HTTP.
//
//nolint:interfacebloat // one method per route
type Orchestrator interface {
	Open(ctx context.Context) (domsession.State, error)
	Get(ctx context.Context, id string) (domsession.State, error)
	SwitchActiveDataset(ctx context.Context, id, dataset string) (domsession.State, error)
	ApplyFilter(ctx context.Context, id, text string) (domsession.State, error)
	ClearFilter(ctx context.Context, id string) (domsession.State, error)
	SetPageCountCap(ctx context.Context, id string, n int) (domsession.State, error)
	ListPages(ctx context.Context, id string) (page.Listing, error)
	ListTopTerms(ctx context.Context, id string, maxTerms int) ([]term.Summary, error)
	TagPages(ctx context.Context, id string, urls []string, tag string, add bool) (tagging.Plan, error)
	TagTerms(ctx context.Context, id string, terms []string, tag string, add bool) (tagging.Plan, error)
	GetTermContext(ctx context.Context, id, word string) (term.Context, error)
	PageSummary(ctx context.Context, id string, w domsummary.Window, applyFilter bool) (domsummary.CountsByLabel, error)
	CrawlSummary(ctx context.Context, id string, w domsummary.Window, applyFilter bool) (domsummary.CrawlCounts, error)
	ListDatasets(ctx context.Context) ([]domds.Dataset, error)
	BoostPages(ctx context.Context, id string, urls []string) (int, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
