// Package filter parses operator free-text filters into conjunctive terms.
package filter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/crawlscope/internal/domain"
)

// Limits on filter text.
const (
	MaxTerms   = 32
	MaxTermLen = 128
)

// Filter is a conjunction of terms. The zero value matches everything.
type Filter struct {
	text  string
	terms []string
}

// Parse splits text on whitespace into terms; double-quoted runs form a single
// phrase term. Blank text yields the zero Filter.
func Parse(text string) (Filter, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Filter{}, nil
	}

	var (
		terms   []string
		cur     strings.Builder
		inQuote bool
		gap     bool
	)
	flush := func() {
		if cur.Len() > 0 {
			terms = append(terms, cur.String())
			cur.Reset()
		}
		gap = false
	}

	for _, r := range text {
		switch {
		case unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r':
			return Filter{}, fmt.Errorf("%w: control character in filter", domain.ErrInvalidFilter)
		case r == '"':
			flush()
			inQuote = !inQuote
		case unicode.IsSpace(r) && !inQuote:
			flush()
		case unicode.IsSpace(r):
			gap = cur.Len() > 0
		default:
			if gap {
				cur.WriteRune(' ')
				gap = false
			}
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return Filter{}, fmt.Errorf("%w: unbalanced quote", domain.ErrInvalidFilter)
	}
	flush()

	if len(terms) > MaxTerms {
		return Filter{}, fmt.Errorf("%w: too many terms (max %d)", domain.ErrInvalidFilter, MaxTerms)
	}
	for _, t := range terms {
		if len(t) > MaxTermLen {
			return Filter{}, fmt.Errorf("%w: term longer than %d bytes", domain.ErrInvalidFilter, MaxTermLen)
		}
	}
	if len(terms) == 0 {
		return Filter{}, nil
	}

	return Filter{text: text, terms: terms}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Filter {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

// Text returns the filter as the operator typed it (trimmed).
func (f Filter) Text() string { return f.text }

// Terms returns the conjunctive terms.
func (f Filter) Terms() []string {
	out := make([]string, len(f.terms))
	copy(out, f.terms)
	return out
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool { return len(f.terms) == 0 }

// MarshalText implements encoding.TextMarshaler.
func (f Filter) MarshalText() ([]byte, error) {
	return []byte(f.text), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Filter) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
