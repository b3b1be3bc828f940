package chi

import (
	"time"

	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
	"github.com/kailas-cloud/crawlscope/internal/domain/term"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

// ErrorCode is the machine-readable error kind returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeSessionNotFound  ErrorCode = "session_not_found"
	ErrorCodeNoActiveDataset  ErrorCode = "no_active_dataset"
	ErrorCodeGatewayFailure   ErrorCode = "gateway_failure"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID            string `json:"id"`
	ActiveDataset string `json:"active_dataset,omitempty"`
	ActiveFilter  string `json:"active_filter,omitempty"`
	PageCountCap  int    `json:"page_count_cap"`
}

// DatasetResponse describes a registered dataset.
type DatasetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DatasetListResponse lists datasets.
type DatasetListResponse struct {
	Items []DatasetResponse `json:"items"`
}

// PageResponse is one page of a listing.
type PageResponse struct {
	URL         string    `json:"url"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Tags        []string  `json:"tags"`
	RetrievedAt time.Time `json:"retrieved_at"`
	Phase       string    `json:"phase"`
}

// ListingResponse is the page listing. LastRetrievedAt is null when empty.
type ListingResponse struct {
	LastRetrievedAt *time.Time     `json:"last_retrieved_at"`
	Pages           []PageResponse `json:"pages"`
}

// TermResponse is one row of the top-terms listing.
type TermResponse struct {
	Term              string   `json:"term"`
	PositiveFrequency int      `json:"positive_frequency"`
	NegativeFrequency int      `json:"negative_frequency"`
	Tags              []string `json:"tags"`
}

// TermListResponse lists ranked terms.
type TermListResponse struct {
	Items []TermResponse `json:"items"`
}

// TermContextResponse pairs a term's tags with snippets keyed by page URL.
type TermContextResponse struct {
	Term     string            `json:"term"`
	Tags     []string          `json:"tags"`
	Snippets map[string]string `json:"snippets"`
}

// TagResponse reports how many records a tag request wrote.
type TagResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// BoostResponse reports how many pages were boosted.
type BoostResponse struct {
	Boosted int `json:"boosted"`
}

// PageSummaryResponse counts pages per relevance bucket.
type PageSummaryResponse struct {
	Relevant   int `json:"relevant"`
	Irrelevant int `json:"irrelevant"`
	Neutral    int `json:"neutral"`
}

// PhaseCountsResponse counts pages per crawl phase.
type PhaseCountsResponse struct {
	Explored  int `json:"explored"`
	Exploited int `json:"exploited"`
	Boosted   int `json:"boosted"`
}

// CrawlSummaryResponse splits phase counts by relevance.
type CrawlSummaryResponse struct {
	Positive PhaseCountsResponse `json:"positive"`
	Negative PhaseCountsResponse `json:"negative"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SetDatasetRequest selects the active dataset.
type SetDatasetRequest struct {
	Dataset string `json:"dataset"`
}

// SetFilterRequest sets the active filter.
type SetFilterRequest struct {
	Filter string `json:"filter"`
}

// SetPageCapRequest sets the listing cap.
type SetPageCapRequest struct {
	PageCountCap int `json:"page_count_cap"`
}

// TagPagesRequest adds or removes a tag on pages.
type TagPagesRequest struct {
	URLs []string `json:"urls"`
	Tag  string   `json:"tag"`
	Add  bool     `json:"add"`
}

// TagTermsRequest adds or removes a tag on terms.
type TagTermsRequest struct {
	Terms []string `json:"terms"`
	Tag   string   `json:"tag"`
	Add   bool     `json:"add"`
}

// BoostPagesRequest boosts pages.
type BoostPagesRequest struct {
	URLs []string `json:"urls"`
}

func sessionToResponse(st domsession.State) SessionResponse {
	return SessionResponse{
		ID:            st.ID(),
		ActiveDataset: st.ActiveDataset(),
		ActiveFilter:  st.ActiveFilter().Text(),
		PageCountCap:  st.PageCountCap(),
	}
}

func datasetToResponse(d domds.Dataset) DatasetResponse {
	return DatasetResponse{ID: d.ID(), Name: d.Name(), CreatedAt: d.CreatedAt().UTC()}
}

func listingToResponse(l page.Listing) ListingResponse {
	resp := ListingResponse{Pages: make([]PageResponse, len(l.Pages))}
	if !l.LastRetrievedAt.IsZero() {
		t := l.LastRetrievedAt.UTC()
		resp.LastRetrievedAt = &t
	}
	for i, p := range l.Pages {
		resp.Pages[i] = PageResponse{
			URL:         p.URL(),
			X:           p.X(),
			Y:           p.Y(),
			Tags:        labels(p.Tags()),
			RetrievedAt: p.RetrievedAt().UTC(),
			Phase:       string(p.Phase()),
		}
	}
	return resp
}

func termsToResponse(ts []term.Summary) TermListResponse {
	items := make([]TermResponse, len(ts))
	for i, t := range ts {
		items[i] = TermResponse{
			Term:              t.Term,
			PositiveFrequency: t.PositiveFrequency,
			NegativeFrequency: t.NegativeFrequency,
			Tags:              labels(t.Tags),
		}
	}
	return TermListResponse{Items: items}
}

func planToResponse(p tagging.Plan) TagResponse {
	return TagResponse{Created: len(p.Creates), Updated: len(p.Updates)}
}

func phaseCountsToResponse(p domsummary.PhaseCounts) PhaseCountsResponse {
	return PhaseCountsResponse{Explored: p.Explored, Exploited: p.Exploited, Boosted: p.Boosted}
}

func labels(s tagset.Set) []string {
	out := s.Labels()
	if out == nil {
		out = []string{}
	}
	return out
}
