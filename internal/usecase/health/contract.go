package health

import (
	"context"

	"github.com/furnimatch/furnimatch/internal/usecase/recommend"
)

// CachePinger checks embedding-cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexReader reports whether the recommendation index is serving.
type IndexReader interface {
	Snapshot() (*recommend.Index, error)
}
