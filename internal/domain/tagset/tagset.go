// Package tagset implements the label collection attached to pages and terms
// and its single-field storage encoding.
package tagset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/crawlscope/internal/domain"
)

// Delimiter separates labels in the encoded form.
const Delimiter = ";"

// Well-known labels that drive summaries and term ranking.
const (
	Relevant   = "Relevant"
	Irrelevant = "Irrelevant"
)

// Set is an ordered, duplicate-free collection of labels (immutable value object).
type Set struct {
	labels []string
}

// New validates labels and builds a Set. Duplicates keep their first position.
func New(labels ...string) (Set, error) {
	for _, l := range labels {
		if err := ValidateLabel(l); err != nil {
			return Set{}, err
		}
	}
	return fromLabels(labels), nil
}

// ValidateLabel rejects labels that cannot survive an encode/decode round trip.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: label is empty", domain.ErrInvalidTag)
	}
	if strings.Contains(label, Delimiter) {
		return fmt.Errorf("%w: label %q contains %q", domain.ErrInvalidTag, label, Delimiter)
	}
	return nil
}

// Decode parses the stored form. Empty input yields the empty set; empty
// segments are dropped.
func Decode(raw string) Set {
	if raw == "" {
		return Set{}
	}
	return fromLabels(strings.Split(raw, Delimiter))
}

func fromLabels(labels []string) Set {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return Set{}
	}
	return Set{labels: out}
}

// Encode joins labels with the delimiter. The empty set encodes to "".
func (s Set) Encode() string {
	return strings.Join(s.labels, Delimiter)
}

// Labels returns a copy of the labels in insertion order.
func (s Set) Labels() []string {
	return slices.Clone(s.labels)
}

// Len returns the number of labels.
func (s Set) Len() int { return len(s.labels) }

// IsEmpty reports whether the set has no labels.
func (s Set) IsEmpty() bool { return len(s.labels) == 0 }

// Contains reports whether label is in the set.
func (s Set) Contains(label string) bool {
	return slices.Contains(s.labels, label)
}

// Add returns a set with label appended. Adding a present label returns s unchanged.
func (s Set) Add(label string) Set {
	if s.Contains(label) {
		return s
	}
	out := make([]string, len(s.labels), len(s.labels)+1)
	copy(out, s.labels)
	return Set{labels: append(out, label)}
}

// Remove returns a set without label, preserving the order of the rest.
func (s Set) Remove(label string) Set {
	i := slices.Index(s.labels, label)
	if i < 0 {
		return s
	}
	out := slices.Delete(slices.Clone(s.labels), i, i+1)
	if len(out) == 0 {
		return Set{}
	}
	return Set{labels: out}
}

// Equal reports whether both sets hold the same labels in the same order.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s.labels, other.labels)
}

// String implements fmt.Stringer.
func (s Set) String() string {
	return "{" + strings.Join(s.labels, ", ") + "}"
}
