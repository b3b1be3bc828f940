package crawlscope

import (
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
)

// Labels with a fixed meaning in summaries and term ranking.
const (
	LabelRelevant   = tagset.Relevant
	LabelIrrelevant = tagset.Irrelevant
)

// Phase records how the crawler reached a page.
type Phase string

// Phase constants.
const (
	PhaseExplored  Phase = Phase(page.PhaseExplored)
	PhaseExploited Phase = Phase(page.PhaseExploited)
	PhaseBoosted   Phase = Phase(page.PhaseBoosted)
)

// Session is the state of one exploration session.
type Session struct {
	ID            string
	ActiveDataset string // empty when none is selected
	ActiveFilter  string
	PageCountCap  int
}

// Dataset is a registered crawl.
type Dataset struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Page is a crawled page placed on the 2-D map.
type Page struct {
	URL         string
	X, Y        float64
	Tags        []string
	RetrievedAt time.Time
	Phase       Phase
}

// Listing is the result of ListPages. LastRetrievedAt is zero when Pages is empty.
type Listing struct {
	LastRetrievedAt time.Time
	Pages           []Page
}

// Term is one row of the top-terms listing.
type Term struct {
	Term              string
	PositiveFrequency int
	NegativeFrequency int
	Tags              []string
}

// TermContext holds a term's labels and snippets keyed by page URL.
type TermContext struct {
	Term     string
	Tags     []string
	Snippets map[string]string
}

// TagResult counts the records a tag request wrote.
type TagResult struct {
	Created int
	Updated int
}

// Window bounds summaries by retrieval time. Zero bounds are open.
type Window struct {
	From time.Time
	To   time.Time
}

// PageSummary counts pages per relevance bucket.
type PageSummary struct {
	Relevant   int
	Irrelevant int
	Neutral    int
}

// PhaseCounts counts pages per crawl phase.
type PhaseCounts struct {
	Explored  int
	Exploited int
	Boosted   int
}

// CrawlSummary splits phase counts into relevant and irrelevant pages.
type CrawlSummary struct {
	Positive PhaseCounts
	Negative PhaseCounts
}

// PageInput is a crawled page to ingest. Zero RetrievedAt means now;
// empty Phase means explored.
type PageInput struct {
	URL         string
	Text        string
	RetrievedAt time.Time
	Phase       Phase
	Tags        []string
}
