// Package document is the gateway between the exploration services and the
// crawl store: lookups by field, recency and time range, plus batched writes.
package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/db"
	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
)

const (
	defaultPageSize     = 1000
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultReadRetries  = 2
	defaultRetryBase    = 100 * time.Millisecond
)

// store is the consumer interface for crawl records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repo implements the document gateway over RediSearch.
type Repo struct {
	store        store
	ks           db.Keyspace
	pageSize     int
	readTimeout  time.Duration
	writeTimeout time.Duration
	readRetries  int
	retryBase    time.Duration
}

// New creates a document gateway.
func New(s store, ks db.Keyspace) *Repo {
	return &Repo{
		store:        s,
		ks:           ks,
		pageSize:     defaultPageSize,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		readRetries:  defaultReadRetries,
		retryBase:    defaultRetryBase,
	}
}

// WithTimeouts bounds each read attempt and each write.
func (r *Repo) WithTimeouts(read, write time.Duration) *Repo {
	if read > 0 {
		r.readTimeout = read
	}
	if write > 0 {
		r.writeTimeout = write
	}
	return r
}

// WithRetries sets how many times a transient read failure is retried and the
// first backoff interval.
func (r *Repo) WithRetries(retries int, base time.Duration) *Repo {
	if retries >= 0 {
		r.readRetries = retries
	}
	if base > 0 {
		r.retryBase = base
	}
	return r
}

// WithPageSize sets the FT.SEARCH page size used by scans.
func (r *Repo) WithPageSize(n int) *Repo {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

// FindByField returns records whose field equals one of values, keyed by that
// value. Values with no record are absent from the map.
func (r *Repo) FindByField(
	ctx context.Context, dataset string, docType record.DocType, field string, values, returnFields []string,
) (map[string]record.Record, error) {
	out := make(map[string]record.Record, len(values))
	if len(values) == 0 {
		return out, nil
	}

	if field == docType.KeyField() {
		return r.findByKey(ctx, dataset, docType, values, returnFields)
	}

	recs, err := r.scan(ctx, "find_by_field", dataset, docType, db.TagMatch(field, values...), returnFields)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if v, ok := rec.String(field); ok {
			out[v] = rec
		}
	}
	return out, nil
}

func (r *Repo) findByKey(
	ctx context.Context, dataset string, docType record.DocType, ids, returnFields []string,
) (map[string]record.Record, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.ks.Record(dataset, string(docType), id)
	}

	hashes, err := read(ctx, r, "find_by_key", func(ctx context.Context) ([]map[string]string, error) {
		return r.store.HGetAllMulti(ctx, keys)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]record.Record, len(ids))
	for i, h := range hashes {
		if len(h) == 0 || i >= len(ids) {
			continue
		}
		out[ids[i]] = record.New(ids[i], project(h, returnFields))
	}
	return out, nil
}

// FindMostRecent returns up to limit records ordered by retrieval time, newest
// first, restricted to those whose text matches every filter term.
func (r *Repo) FindMostRecent(
	ctx context.Context, dataset string, docType record.DocType, limit int, returnFields []string, f filter.Filter,
) ([]record.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := &db.Query{
		IndexName:    r.ks.Index(dataset, string(docType)),
		Query:        db.And(db.TextAll(record.FieldText, f.Terms())),
		ReturnFields: withKey(returnFields, docType),
		SortBy:       record.FieldRetrieved,
		SortDesc:     true,
		Limit:        limit,
	}

	res, err := read(ctx, r, "find_most_recent", func(ctx context.Context) (*db.SearchResult, error) {
		return r.search(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return toRecords(res, docType), nil
}

// FindInRange returns every record whose numeric field lies in [from, to],
// restricted by f.
func (r *Repo) FindInRange(
	ctx context.Context, dataset string, docType record.DocType, field string, from, to float64,
	returnFields []string, f filter.Filter,
) ([]record.Record, error) {
	query := db.And(db.NumericRange(field, from, to), db.TextAll(record.FieldText, f.Terms()))
	return r.scan(ctx, "find_in_range", dataset, docType, query, returnFields)
}

// FindAllIDs returns the identifiers of every record of docType.
func (r *Repo) FindAllIDs(ctx context.Context, dataset string, docType record.DocType) ([]string, error) {
	recs, err := r.scan(ctx, "find_all_ids", dataset, docType, db.MatchAll, []string{docType.KeyField()})
	if err != nil {
		return nil, err
	}
	return ids(recs), nil
}

// FindTagged returns the identifiers of records carrying tag.
func (r *Repo) FindTagged(ctx context.Context, dataset string, docType record.DocType, tag string) ([]string, error) {
	recs, err := r.scan(ctx, "find_tagged", dataset, docType,
		db.TagMatch(record.FieldTag, tag), []string{docType.KeyField()})
	if err != nil {
		return nil, err
	}
	return ids(recs), nil
}

// Context returns text fragments around term for pages that mention it,
// keyed by page URL.
func (r *Repo) Context(ctx context.Context, dataset, term string, limit int) (map[string]string, error) {
	out := make(map[string]string)
	text := db.TextAll(record.FieldText, []string{term})
	if text == "" || limit <= 0 {
		return out, nil
	}
	q := &db.Query{
		IndexName:    r.ks.Index(dataset, string(record.DocTypePage)),
		Query:        text,
		ReturnFields: []string{record.FieldURL, record.FieldText},
		Summarize: &db.Summarize{
			Fields:    []string{record.FieldText},
			Frags:     3,
			Len:       20,
			Separator: " ... ",
		},
		Limit: limit,
	}

	res, err := read(ctx, r, "context", func(ctx context.Context) (*db.SearchResult, error) {
		return r.search(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	for _, e := range res.Entries {
		url := e.Fields[record.FieldURL]
		if url == "" {
			continue
		}
		out[url] = e.Fields[record.FieldText]
	}
	return out, nil
}

// Create writes full records. The key field is set from each record's ID.
func (r *Repo) Create(ctx context.Context, recs []record.Record, dataset string, docType record.DocType) error {
	if len(recs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(recs))
	for i, rec := range recs {
		fields := rec.Fields()
		if fields == nil {
			fields = make(map[string]string, 1)
		}
		fields[docType.KeyField()] = rec.ID()
		items[i] = db.HashSetItem{Key: r.ks.Record(dataset, string(docType), rec.ID()), Fields: fields}
	}
	return r.write(ctx, "create", func(ctx context.Context) error {
		return r.store.HSetMulti(ctx, items)
	})
}

// Update merges the supplied fields into existing records located by keyField.
// Fields not present on a record are left untouched in the store.
func (r *Repo) Update(
	ctx context.Context, recs []record.Record, keyField, dataset string, docType record.DocType,
) error {
	if len(recs) == 0 {
		return nil
	}

	keys := make([]string, len(recs))
	if keyField == docType.KeyField() {
		for i, rec := range recs {
			keys[i] = r.ks.Record(dataset, string(docType), locator(rec, keyField))
		}
	} else {
		values := make([]string, len(recs))
		for i, rec := range recs {
			values[i] = locator(rec, keyField)
		}
		found, err := r.FindByField(ctx, dataset, docType, keyField, values, []string{docType.KeyField()})
		if err != nil {
			return err
		}
		for i, v := range values {
			hit, ok := found[v]
			if !ok {
				return fmt.Errorf("update %s: no record with %s=%q", docType, keyField, v)
			}
			keys[i] = r.ks.Record(dataset, string(docType), hit.ID())
		}
	}

	items := make([]db.HashSetItem, len(recs))
	for i, rec := range recs {
		fields := rec.Fields()
		delete(fields, docType.KeyField())
		items[i] = db.HashSetItem{Key: keys[i], Fields: fields}
	}
	return r.write(ctx, "update", func(ctx context.Context) error {
		return r.store.HSetMulti(ctx, items)
	})
}

// scan pages through every match of query.
func (r *Repo) scan(
	ctx context.Context, op, dataset string, docType record.DocType, query string, returnFields []string,
) ([]record.Record, error) {
	var out []record.Record
	q := db.Query{
		IndexName:    r.ks.Index(dataset, string(docType)),
		Query:        query,
		ReturnFields: withKey(returnFields, docType),
		Limit:        r.pageSize,
	}

	for {
		page := q
		res, err := read(ctx, r, op, func(ctx context.Context) (*db.SearchResult, error) {
			return r.search(ctx, &page)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, toRecords(res, docType)...)
		q.Offset += len(res.Entries)
		if len(res.Entries) < r.pageSize || q.Offset >= res.Total {
			return out, nil
		}
	}
}

// search treats a dataset without an index as an empty dataset.
func (r *Repo) search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	res, err := r.store.Search(ctx, q)
	if errors.Is(err, db.ErrIndexNotFound) {
		return &db.SearchResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &db.SearchResult{}, nil
	}
	return res, nil
}

func toRecords(res *db.SearchResult, docType record.DocType) []record.Record {
	keyField := docType.KeyField()
	out := make([]record.Record, 0, len(res.Entries))
	for _, e := range res.Entries {
		id, ok := e.Fields[keyField]
		if !ok {
			continue
		}
		out = append(out, record.New(id, e.Fields))
	}
	return out
}

func ids(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.ID()
	}
	return out
}

func locator(rec record.Record, keyField string) string {
	if v, ok := rec.String(keyField); ok && v != "" {
		return v
	}
	return rec.ID()
}

func withKey(fields []string, docType record.DocType) []string {
	if len(fields) == 0 {
		return nil
	}
	key := docType.KeyField()
	if slices.Contains(fields, key) {
		return fields
	}
	return append(slices.Clone(fields), key)
}

// project keeps only the requested fields; no request means all fields.
func project(h map[string]string, fields []string) map[string]string {
	if len(fields) == 0 {
		return h
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := h[f]; ok {
			out[f] = v
		}
	}
	return out
}
