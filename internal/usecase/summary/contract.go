package summary

import (
	"context"

	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
)

// RangeFinder reads records whose numeric field falls in a range.
type RangeFinder interface {
	FindInRange(
		ctx context.Context, dataset string, docType record.DocType, field string, from, to float64,
		returnFields []string, f filter.Filter,
	) ([]record.Record, error)
}
