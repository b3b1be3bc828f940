package document

import (
	"github.com/kailas-cloud/crawlscope/internal/db"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
)

// Indexes returns the FT index definitions backing a dataset: one over pages,
// one over operator-tagged terms.
func Indexes(ks db.Keyspace, dataset string) []*db.IndexDefinition {
	return []*db.IndexDefinition{
		pageIndex(ks, dataset),
		termIndex(ks, dataset),
	}
}

func pageIndex(ks db.Keyspace, dataset string) *db.IndexDefinition {
	return db.NewIndex(ks.Index(dataset, string(record.DocTypePage))).
		Prefix(ks.RecordPrefix(dataset, string(record.DocTypePage))).
		Tag(record.FieldURL).
		Text(record.FieldText).
		TagWithOpts(record.FieldTag, tagset.Delimiter, true).
		SortableNumeric(record.FieldRetrieved).
		Numeric(record.FieldX).
		Numeric(record.FieldY).
		Tag(record.FieldPhase).
		MustBuild()
}

func termIndex(ks db.Keyspace, dataset string) *db.IndexDefinition {
	return db.NewIndex(ks.Index(dataset, string(record.DocTypeTerm))).
		Prefix(ks.RecordPrefix(dataset, string(record.DocTypeTerm))).
		TagWithOpts(record.FieldTerm, "", true).
		TagWithOpts(record.FieldTag, tagset.Delimiter, true).
		MustBuild()
}
