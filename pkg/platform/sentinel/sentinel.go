package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Catalog sources and caches return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: document, program or schema does not exist in the source
// - ErrUnavailable: source temporarily unavailable (breaker open, connection refused)
// - ErrInvalidState: source holds data in a shape the reader cannot use
//
// For validation and configuration errors, use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
