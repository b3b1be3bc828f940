package crawlscope

import "github.com/kailas-cloud/crawlscope/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrSessionNotFound = domain.ErrSessionNotFound
	ErrNoActiveDataset = domain.ErrNoActiveDataset
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrInvalidFilter   = domain.ErrInvalidFilter
	ErrInvalidTag      = domain.ErrInvalidTag
	ErrGatewayFailure  = domain.ErrGatewayFailure
)
