package session

import (
	"context"

	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

// Store persists session state.
type Store interface {
	Get(ctx context.Context, id string) (domsession.State, error)
	Save(ctx context.Context, st domsession.State) error
}

// Registry lists the datasets a session can switch to.
type Registry interface {
	Get(ctx context.Context, id string) (domds.Dataset, error)
	List(ctx context.Context) ([]domds.Dataset, error)
}

// Documents reads and updates crawled records.
type Documents interface {
	FindByField(
		ctx context.Context, dataset string, docType record.DocType, field string, values, returnFields []string,
	) (map[string]record.Record, error)
	FindMostRecent(
		ctx context.Context, dataset string, docType record.DocType, limit int, returnFields []string, f filter.Filter,
	) ([]record.Record, error)
	FindAllIDs(ctx context.Context, dataset string, docType record.DocType) ([]string, error)
	FindTagged(ctx context.Context, dataset string, docType record.DocType, tag string) ([]string, error)
	Context(ctx context.Context, dataset, term string, limit int) (map[string]string, error)
	Update(ctx context.Context, recs []record.Record, keyField, dataset string, docType record.DocType) error
}

// Ranker scores terms over page sets.
type Ranker interface {
	RankTerms(ctx context.Context, dataset string, urls []string, limit int) ([]string, error)
	TotalTermFrequency(ctx context.Context, dataset string, urls []string) (map[string]int, error)
}

// Projector places pages on the 2-D map.
type Projector interface {
	Project(ctx context.Context, dataset string, pages []page.Page) ([]page.Page, error)
}

// Tagger reconciles and submits tag edits.
type Tagger interface {
	Apply(
		ctx context.Context, dataset string, kind record.DocType, ids []string, tag string, add bool,
	) (tagging.Plan, error)
}

// Summarizer counts tagged pages over a retrieval window.
type Summarizer interface {
	PageSummary(
		ctx context.Context, dataset string, w domsummary.Window, active filter.Filter, applyFilter bool,
	) (domsummary.CountsByLabel, error)
	CrawlSummary(
		ctx context.Context, dataset string, w domsummary.Window, active filter.Filter, applyFilter bool,
	) (domsummary.CrawlCounts, error)
}
