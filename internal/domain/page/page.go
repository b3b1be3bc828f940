package page

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
)

// Phase records how the crawler reached a page.
type Phase string

const (
	// PhaseExplored is the default for pages found by breadth crawling.
	PhaseExplored Phase = "explored"
	// PhaseExploited marks pages reached by following relevant links.
	PhaseExploited Phase = "exploited"
	// PhaseBoosted marks pages an operator boosted.
	PhaseBoosted Phase = "boosted"
)

// ParsePhase maps the stored value to a Phase. Empty means explored.
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case "", PhaseExplored:
		return PhaseExplored, nil
	case PhaseExploited:
		return PhaseExploited, nil
	case PhaseBoosted:
		return PhaseBoosted, nil
	default:
		return "", fmt.Errorf("unknown phase %q", s)
	}
}

// Page is a crawled page as shown to the operator (immutable value object).
type Page struct {
	url         string
	x, y        float64
	tags        tagset.Set
	retrievedAt time.Time
	phase       Phase
}

// New creates a page at the origin with no tags.
func New(url string, retrievedAt time.Time) Page {
	return Page{url: url, retrievedAt: retrievedAt, phase: PhaseExplored}
}

// Reconstruct creates a Page from stored state.
func Reconstruct(url string, x, y float64, tags tagset.Set, retrievedAt time.Time, phase Phase) Page {
	if phase == "" {
		phase = PhaseExplored
	}
	return Page{url: url, x: x, y: y, tags: tags, retrievedAt: retrievedAt, phase: phase}
}

// URL returns the page URL.
func (p Page) URL() string { return p.url }

// X returns the horizontal display coordinate.
func (p Page) X() float64 { return p.x }

// Y returns the vertical display coordinate.
func (p Page) Y() float64 { return p.y }

// Tags returns the page labels.
func (p Page) Tags() tagset.Set { return p.tags }

// RetrievedAt returns when the crawler fetched the page.
func (p Page) RetrievedAt() time.Time { return p.retrievedAt }

// Phase returns how the page was reached.
func (p Page) Phase() Phase { return p.phase }

// WithCoords returns a copy of p placed at (x, y).
func (p Page) WithCoords(x, y float64) Page {
	p.x, p.y = x, y
	return p
}

// URLs extracts page URLs in order.
func URLs(pages []Page) []string {
	out := make([]string, len(pages))
	for i := range pages {
		out[i] = pages[i].url
	}
	return out
}

// Listing is the result of a page listing: the newest retrieval time and the pages.
type Listing struct {
	LastRetrievedAt time.Time
	Pages           []Page
}
