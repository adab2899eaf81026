package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed recommendation request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrProductNotFound signals a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrEmptyCatalog signals that no valid catalog records remain after validation.
	ErrEmptyCatalog = errors.New("empty catalog")
	// ErrIndexNotReady signals that the product index has not been built yet.
	ErrIndexNotReady = errors.New("product index not ready")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
