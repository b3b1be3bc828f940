package term

import "github.com/kailas-cloud/crawlscope/internal/domain/tagset"

// Summary is one row of the top-terms listing.
type Summary struct {
	Term              string
	PositiveFrequency int
	NegativeFrequency int
	Tags              tagset.Set
}

// Context pairs a term's own labels with text snippets from pages that mention it.
type Context struct {
	Term     string
	Tags     tagset.Set
	Snippets map[string]string // page url -> snippet
}
