package domain

import "errors"

// Error kinds surfaced by the retrieval core. Callers classify with
// errors.Is; packages wrap these with context as they propagate.
var (
	// ErrStoreNotFound means the snapshot file is absent. The service is
	// not initialized until an embedding run has produced one.
	ErrStoreNotFound = errors.New("vector store snapshot not found")

	// ErrStoreCorrupt means the snapshot exists but cannot be parsed or
	// is missing required fields (dimension, model, records).
	ErrStoreCorrupt = errors.New("vector store snapshot corrupt")

	// ErrDimensionMismatch means vectors of differing length were
	// compared. This is a data-integrity fault, typically a stale
	// snapshot produced by a different embedding model.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingFailed means the external embedding call failed or
	// timed out. The request fails cleanly with no partial results.
	ErrEmbeddingFailed = errors.New("embedding provider failed")

	// ErrGenerationFailed means the external generation call failed.
	// Recoverable: the caller substitutes the template fallback.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidRequest means malformed caller input; rejected before
	// any retrieval work happens.
	ErrInvalidRequest = errors.New("invalid request")
)
