package db

// MatchAll is the FT.SEARCH query that matches every document in an index.
const MatchAll = "*"

// Query is the input for an FT.SEARCH call.
type Query struct {
	IndexName    string
	Query        string
	ReturnFields []string
	Summarize    *Summarize
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
}

// Summarize asks the engine to return text fragments around matched terms
// instead of the full field value.
type Summarize struct {
	Fields    []string
	Frags     int
	Len       int
	Separator string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
