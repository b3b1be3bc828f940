package domain

import "errors"

var (
	// ErrNotFound signals a missing resource (unknown dataset, unknown term).
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound signals an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidConfig signals a rejected session setting, such as a non-positive page cap.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidFilter signals malformed filter text.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidTag signals an empty label or one containing the storage delimiter.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrNoActiveDataset signals an operation that needs a dataset before one was selected.
	ErrNoActiveDataset = errors.New("no active dataset")
	// ErrGatewayFailure signals that the document store or term statistics backend
	// was unreachable or returned malformed data.
	ErrGatewayFailure = errors.New("gateway failure")
	// ErrDegenerate signals input too small for ranking or reduction (fewer than 2 documents).
	ErrDegenerate = errors.New("degenerate input")
)
