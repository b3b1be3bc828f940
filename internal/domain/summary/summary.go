// Package summary holds the windowed counts shown on the crawl dashboard.
package summary

import (
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
)

// Bucket is the relevance class of a document.
type Bucket int

const (
	// Neutral documents carry neither Relevant nor Irrelevant.
	Neutral Bucket = iota
	// Relevant documents carry the Relevant label.
	Relevant
	// Irrelevant documents carry Irrelevant and not Relevant.
	Irrelevant
)

// String implements fmt.Stringer.
func (b Bucket) String() string {
	switch b {
	case Relevant:
		return "relevant"
	case Irrelevant:
		return "irrelevant"
	default:
		return "neutral"
	}
}

// Classify puts a tag set in exactly one bucket. Relevant wins over Irrelevant.
func Classify(tags tagset.Set) Bucket {
	switch {
	case tags.Contains(tagset.Relevant):
		return Relevant
	case tags.Contains(tagset.Irrelevant):
		return Irrelevant
	default:
		return Neutral
	}
}

// CountsByLabel tallies documents per relevance bucket.
type CountsByLabel struct {
	Relevant   int
	Irrelevant int
	Neutral    int
}

// Add counts one document.
func (c *CountsByLabel) Add(tags tagset.Set) {
	switch Classify(tags) {
	case Relevant:
		c.Relevant++
	case Irrelevant:
		c.Irrelevant++
	default:
		c.Neutral++
	}
}

// Total returns the number of counted documents.
func (c CountsByLabel) Total() int {
	return c.Relevant + c.Irrelevant + c.Neutral
}

// PhaseCounts tallies pages per crawl phase.
type PhaseCounts struct {
	Explored  int
	Exploited int
	Boosted   int
}

func (p *PhaseCounts) add(ph page.Phase) {
	switch ph {
	case page.PhaseExploited:
		p.Exploited++
	case page.PhaseBoosted:
		p.Boosted++
	default:
		p.Explored++
	}
}

// CrawlCounts splits phase counts by relevance. Positive is the Relevant
// bucket, Negative the Irrelevant one; neutral pages are not counted.
type CrawlCounts struct {
	Positive PhaseCounts
	Negative PhaseCounts
}

// Add counts one page.
func (c *CrawlCounts) Add(tags tagset.Set, ph page.Phase) {
	switch Classify(tags) {
	case Relevant:
		c.Positive.add(ph)
	case Irrelevant:
		c.Negative.add(ph)
	}
}

// Window is an inclusive retrieval-time range. Zero bounds are open.
type Window struct {
	From time.Time
	To   time.Time
}

// Resolve fills defaults: From is the Unix epoch, To is now.
func (w Window) Resolve(now time.Time) Window {
	if w.From.IsZero() {
		w.From = time.Unix(0, 0).UTC()
	}
	if w.To.IsZero() {
		w.To = now
	}
	return w
}
