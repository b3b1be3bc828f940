package session

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	"github.com/kailas-cloud/crawlscope/internal/domain/filter"
)

// DefaultPageCountCap bounds page listings when no cap was set.
const DefaultPageCountCap = 1000

// State is the per-session exploration state (immutable value object).
// Transitions return a new State.
type State struct {
	id            string
	activeDataset string
	activeFilter  filter.Filter
	pageCountCap  int
}

// New creates a session with no dataset, no filter and the given cap
// (DefaultPageCountCap when cap <= 0).
func New(id string, pageCountCap int) State {
	if pageCountCap <= 0 {
		pageCountCap = DefaultPageCountCap
	}
	return State{id: id, pageCountCap: pageCountCap}
}

// ID returns the session identifier.
func (s State) ID() string { return s.id }

// ActiveDataset returns the selected dataset, "" when none.
func (s State) ActiveDataset() string { return s.activeDataset }

// HasDataset reports whether a dataset is selected.
func (s State) HasDataset() bool { return s.activeDataset != "" }

// ActiveFilter returns the current filter.
func (s State) ActiveFilter() filter.Filter { return s.activeFilter }

// PageCountCap returns the listing cap.
func (s State) PageCountCap() int { return s.pageCountCap }

// SwitchDataset selects dataset and clears the filter.
func (s State) SwitchDataset(dataset string) State {
	s.activeDataset = dataset
	s.activeFilter = filter.Filter{}
	return s
}

// ApplyFilter replaces the filter. An empty filter leaves the current one in place;
// use ClearFilter to drop it.
func (s State) ApplyFilter(f filter.Filter) State {
	if f.IsEmpty() {
		return s
	}
	s.activeFilter = f
	return s
}

// ClearFilter drops the filter.
func (s State) ClearFilter() State {
	s.activeFilter = filter.Filter{}
	return s
}

// WithPageCountCap sets the listing cap. n must be positive.
func (s State) WithPageCountCap(n int) (State, error) {
	if n <= 0 {
		return s, fmt.Errorf("%w: page count cap must be positive, got %d", domain.ErrInvalidConfig, n)
	}
	s.pageCountCap = n
	return s, nil
}

type stateJSON struct {
	ID            string        `json:"id"`
	ActiveDataset string        `json:"active_dataset,omitempty"`
	ActiveFilter  filter.Filter `json:"active_filter"`
	PageCountCap  int           `json:"page_count_cap"`
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		ID:            s.id,
		ActiveDataset: s.activeDataset,
		ActiveFilter:  s.activeFilter,
		PageCountCap:  s.pageCountCap,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.ID == "" {
		return fmt.Errorf("session state without id")
	}
	*s = New(raw.ID, raw.PageCountCap)
	s.activeDataset = raw.ActiveDataset
	s.activeFilter = raw.ActiveFilter
	return nil
}
