package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record or snapshot does not exist in the store
//   - ErrNoSnapshot: nothing has been published yet
//   - ErrCacheMiss: key absent from a cache layer
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrNoSnapshot  = errors.New("no snapshot published")
	ErrCacheMiss   = errors.New("cache miss")
	ErrUnavailable = errors.New("unavailable")
)
