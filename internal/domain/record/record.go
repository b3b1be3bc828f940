// Package record defines the typed view over stored crawl documents.
package record

import (
	"maps"
	"strconv"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
)

// DocType selects which collection of a dataset a record lives in.
type DocType string

const (
	// DocTypePage holds crawled pages keyed by URL.
	DocTypePage DocType = "page"
	// DocTypeTerm holds operator-tagged terms keyed by the term text.
	DocTypeTerm DocType = "term"
)

// KeyField returns the field that identifies records of this type.
func (t DocType) KeyField() string {
	if t == DocTypeTerm {
		return FieldTerm
	}
	return FieldURL
}

// Valid reports whether t is a known doc type.
func (t DocType) Valid() bool {
	return t == DocTypePage || t == DocTypeTerm
}

// Stored field names.
const (
	FieldURL       = "url"
	FieldTerm      = "term"
	FieldText      = "text"
	FieldTag       = "tag"
	FieldRetrieved = "retrieved"
	FieldX         = "x"
	FieldY         = "y"
	FieldPhase     = "phase"
)

// Record is one stored document: its identifier and the fields the caller asked for.
// Absence of a field is reported explicitly by the accessors.
type Record struct {
	id     string
	fields map[string]string
}

// New builds a record. The fields map is copied.
func New(id string, fields map[string]string) Record {
	return Record{id: id, fields: maps.Clone(fields)}
}

// ID returns the key field value.
func (r Record) ID() string { return r.id }

// Fields returns a copy of the raw fields.
func (r Record) Fields() map[string]string { return maps.Clone(r.fields) }

// Has reports whether field is present.
func (r Record) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// String returns a field value and whether it was present.
func (r Record) String(field string) (string, bool) {
	v, ok := r.fields[field]
	return v, ok
}

// Float parses a numeric field. Missing or unparsable values report false.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r.fields[field]
	if !ok || v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Tags decodes the tag field. A missing field is the empty set.
func (r Record) Tags() tagset.Set {
	return tagset.Decode(r.fields[FieldTag])
}

// Retrieved returns the retrieval time stored as epoch seconds.
func (r Record) Retrieved() (time.Time, bool) {
	f, ok := r.Float(FieldRetrieved)
	if !ok {
		return time.Time{}, false
	}
	return FromEpoch(f), true
}

// FromEpoch converts stored epoch seconds back to a UTC time.
func FromEpoch(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// Epoch converts t to the stored epoch-seconds representation.
func Epoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// FormatEpoch renders t the way the retrieved field is stored.
func FormatEpoch(t time.Time) string {
	return strconv.FormatFloat(Epoch(t), 'f', -1, 64)
}
