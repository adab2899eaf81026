package recommend

import (
	"context"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/product"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CatalogSource provides validated products for index builds.
type CatalogSource interface {
	Load() ([]product.Product, error)
}
