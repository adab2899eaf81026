package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/product"
)

// buildBatchSize caps how many weighted texts go into a single embedding API call.
const buildBatchSize = 256

// Index is the immutable searchable snapshot of the catalog: every product
// with its precomputed weighted embedding and expanded keyword sets.
// Never mutated after Build; rebuilds produce a fresh Index.
type Index struct {
	products []product.Product
	vectors  [][]float32
	catSets  []keywordSet
	matSets  []keywordSet
	colSets  []keywordSet
	byID     map[string]int
	builtAt  time.Time
}

// Build embeds every product's weighted text and precomputes the keyword
// sets. Products must already be validated; Build fails on embedding errors
// or an empty product list.
func Build(
	ctx context.Context,
	products []product.Product,
	embedder domain.Embedder,
	vocab Vocabulary,
) (*Index, error) {
	if len(products) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	texts := make([]string, len(products))
	for i := range products {
		texts[i] = products[i].WeightedText()
	}

	vectors, err := embedAll(ctx, embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed catalog: %w", err)
	}

	idx := &Index{
		products: products,
		vectors:  vectors,
		catSets:  make([]keywordSet, len(products)),
		matSets:  make([]keywordSet, len(products)),
		colSets:  make([]keywordSet, len(products)),
		byID:     make(map[string]int, len(products)),
		builtAt:  time.Now().UTC(),
	}

	for i := range products {
		p := &products[i]
		idx.catSets[i] = expand(vocab.Categories, strings.Join(p.Categories(), ", "))
		idx.matSets[i] = expand(vocab.Materials, p.Material())
		idx.colSets[i] = expand(vocab.Colors, p.Color())
		if _, dup := idx.byID[p.ID()]; !dup {
			idx.byID[p.ID()] = i
		}
	}

	return idx, nil
}

// embedAll vectorizes texts in chunks of buildBatchSize, using native batch
// embedding when the provider supports it.
func embedAll(ctx context.Context, embedder domain.Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for offset := 0; offset < len(texts); offset += buildBatchSize {
		end := offset + buildBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[offset:end]

		var res domain.BatchEmbeddingResult
		var err error
		if be, ok := embedder.(domain.BatchEmbedder); ok {
			res, err = be.BatchEmbed(ctx, chunk)
		} else {
			res, err = domain.BatchFallback(ctx, embedder, chunk)
		}
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %d: %w", offset, err)
		}
		if len(res.Embeddings) != len(chunk) {
			return nil, fmt.Errorf(
				"chunk at offset %d: got %d vectors for %d texts: %w",
				offset, len(res.Embeddings), len(chunk), domain.ErrEmbeddingProviderError,
			)
		}

		vectors = append(vectors, res.Embeddings...)
	}

	return vectors, nil
}

// Len returns the number of indexed products.
func (idx *Index) Len() int { return len(idx.products) }

// Products returns the indexed products in catalog order.
// Callers must not mutate the returned slice.
func (idx *Index) Products() []product.Product { return idx.products }

// ProductByID looks up a product by its identifier.
func (idx *Index) ProductByID(id string) (product.Product, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return product.Product{}, false
	}
	return idx.products[i], true
}

// BuiltAt returns the build timestamp.
func (idx *Index) BuiltAt() time.Time { return idx.builtAt }

// Handle is the shared access point to the active index. Rebuilds swap the
// pointer atomically so in-flight requests see either the old complete
// index or the new complete one, never a partial build.
type Handle struct {
	ptr atomic.Pointer[Index]
}

// NewHandle creates an empty index handle.
func NewHandle() *Handle { return &Handle{} }

// Swap atomically publishes a new index.
func (h *Handle) Swap(idx *Index) { h.ptr.Store(idx) }

// Snapshot returns the active index, or domain.ErrIndexNotReady before the
// first successful build.
func (h *Handle) Snapshot() (*Index, error) {
	idx := h.ptr.Load()
	if idx == nil {
		return nil, domain.ErrIndexNotReady
	}
	return idx, nil
}
