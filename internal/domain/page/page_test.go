package page

import (
	"testing"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
)

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in      string
		want    Phase
		wantErr bool
	}{
		{"", PhaseExplored, false},
		{"explored", PhaseExplored, false},
		{"exploited", PhaseExploited, false},
		{"boosted", PhaseBoosted, false},
		{"crawled", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePhase(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePhase(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePhase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithCoords_DoesNotAlias(t *testing.T) {
	at := time.Unix(100, 0)
	p := Reconstruct("http://a.org", 1, 2, tagset.Decode("Relevant"), at, "")
	moved := p.WithCoords(3, 4)

	if p.X() != 1 || p.Y() != 2 {
		t.Errorf("original moved to (%v, %v)", p.X(), p.Y())
	}
	if moved.X() != 3 || moved.Y() != 4 {
		t.Errorf("moved = (%v, %v)", moved.X(), moved.Y())
	}
	if moved.URL() != p.URL() || !moved.Tags().Equal(p.Tags()) || !moved.RetrievedAt().Equal(at) {
		t.Error("WithCoords must keep other attributes")
	}
	if p.Phase() != PhaseExplored {
		t.Errorf("empty phase = %q, want explored", p.Phase())
	}
}

func TestURLs(t *testing.T) {
	pages := []Page{New("a", time.Time{}), New("b", time.Time{})}
	got := URLs(pages)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("URLs = %v", got)
	}
}
