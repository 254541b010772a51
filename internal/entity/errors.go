package entity

import "errors"

// Domain errors
var (
	// Request validation errors
	ErrEmptyQuery   = errors.New("query must not be empty")
	ErrMissingField = errors.New("required field is missing")

	// Request gate errors
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrRateLimited  = errors.New("rate limit exceeded")

	// Upstream dependency errors. All three map to a generic 500 at the
	// API boundary; the specific kind is only logged.
	ErrEmbeddingProvider  = errors.New("embedding provider failure")
	ErrSearchBackend      = errors.New("search backend failure")
	ErrGenerationProvider = errors.New("generation provider failure")

	// Page lookup errors
	ErrPageNotFound = errors.New("page not found")
)
