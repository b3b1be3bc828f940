package tagging

import (
	"context"

	"github.com/kailas-cloud/crawlscope/internal/domain/record"
)

// Gateway reads prior tag state and submits tag edits.
type Gateway interface {
	FindByField(
		ctx context.Context, dataset string, docType record.DocType, field string, values, returnFields []string,
	) (map[string]record.Record, error)
	Create(ctx context.Context, recs []record.Record, dataset string, docType record.DocType) error
	Update(ctx context.Context, recs []record.Record, keyField, dataset string, docType record.DocType) error
}
