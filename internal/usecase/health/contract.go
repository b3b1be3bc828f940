package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SearchChecker checks that full-text search is served.
type SearchChecker interface {
	SearchAvailable(ctx context.Context) error
}
