package dataset

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ts := time.Date(2015, 5, 22, 0, 0, 0, 0, time.UTC)
	d, err := New("ebola_2015", "Ebola", ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID() != "ebola_2015" || d.Name() != "Ebola" || !d.CreatedAt().Equal(ts) {
		t.Errorf("got %+v", d)
	}
}

func TestNew_Defaults(t *testing.T) {
	before := time.Now().UTC()
	d, err := New("zika", "", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "zika" {
		t.Errorf("name = %q, want id", d.Name())
	}
	if d.CreatedAt().Before(before) {
		t.Errorf("createdAt %v not defaulted to now", d.CreatedAt())
	}
}

func TestNew_InvalidID(t *testing.T) {
	for _, id := range []string{"", "has space", "colon:id", strings.Repeat("a", 65)} {
		if _, err := New(id, "x", time.Time{}); err == nil {
			t.Errorf("New(%q) expected error", id)
		}
	}
}
