// Package recommend implements the recommendation engine: an in-memory
// catalog index of weighted-text embeddings plus keyword sets, a multi-factor
// scorer blending semantic similarity with category/material/color keyword
// overlap, and the filter-and-rank pipeline on top.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/furnimatch/furnimatch/internal/domain/product"
	"github.com/furnimatch/furnimatch/internal/domain/recommend/match"
	"github.com/furnimatch/furnimatch/internal/domain/recommend/request"
	"github.com/furnimatch/furnimatch/internal/logger"
	"github.com/furnimatch/furnimatch/internal/metrics"
)

// Recommendation pairs a matched product with its score breakdown.
type Recommendation struct {
	Product product.Product
	Match   match.Match
}

// Result is the outcome of one recommendation request.
type Result struct {
	Recommendations []Recommendation
	// Fallback is true when ranking degraded to pure text similarity
	// because no indexed product had a keyword hit for the query.
	Fallback bool
	// TotalIndexed is the size of the index snapshot the request ran against.
	TotalIndexed int
}

// Config holds the scoring knobs.
type Config struct {
	// MinSimilarity is the relevance floor on the blended final score;
	// products below it are discarded before filtering.
	MinSimilarity float64
	Weights       Weights
}

// Service runs recommendation requests against the active index and
// rebuilds the index from the catalog source.
// queryEmbed and docEmbed may carry different instruction prefixes.
type Service struct {
	handle     *Handle
	queryEmbed Embedder
	docEmbed   Embedder
	catalog    CatalogSource
	vocab      Vocabulary
	cfg        Config
}

// New creates a recommendation service.
func New(handle *Handle, queryEmbed, docEmbed Embedder, catalog CatalogSource, vocab Vocabulary, cfg Config) *Service {
	return &Service{
		handle:     handle,
		queryEmbed: queryEmbed,
		docEmbed:   docEmbed,
		catalog:    catalog,
		vocab:      vocab,
		cfg:        cfg,
	}
}

// Recommend executes the full pipeline: score every indexed product,
// discard those below the similarity floor, apply the request's hard
// filters, dedupe, rank, and truncate to top-k.
func (s *Service) Recommend(ctx context.Context, req *request.Request) (Result, error) {
	idx, err := s.handle.Snapshot()
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	embRes, err := s.queryEmbed.Embed(ctx, req.Query())
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("vectorize query: %w", err)
	}

	tokens := Tokenize(req.Query())
	matches, fallback := scoreAll(idx, embRes.Embedding, tokens, s.cfg.Weights)
	if fallback {
		metrics.RecommendFallbackTotal.Inc()
	}

	recs := s.selectMatches(idx, matches, req)

	metrics.RecommendRequestsTotal.WithLabelValues("success").Inc()
	metrics.RecommendResultsReturned.Observe(float64(len(recs)))

	logger.FromContext(ctx).Debug("Recommendation computed",
		zap.Int("indexed", idx.Len()),
		zap.Int("returned", len(recs)),
		zap.Bool("keyword_fallback", fallback),
	)

	return Result{Recommendations: recs, Fallback: fallback, TotalIndexed: idx.Len()}, nil
}

// selectMatches applies threshold, hard filters, dedupe, ordering, and
// truncation. The relevance floor is checked against the blended final
// score (keyword overlap can lift a borderline product over it, or drop
// one below it) before filters run, so filters see the full surviving
// candidate set and top-k truncation happens last.
func (s *Service) selectMatches(idx *Index, matches []match.Match, req *request.Request) []Recommendation {
	f := req.Filters()

	best := make(map[string]int, len(matches)) // product ID -> index into survivors
	var survivors []Recommendation

	for i := range matches {
		m := &matches[i]
		if m.FinalScore() < s.cfg.MinSimilarity {
			continue
		}

		p, ok := idx.ProductByID(m.ProductID())
		if !ok {
			continue
		}
		if !f.Matches(&p) {
			continue
		}

		if j, seen := best[m.ProductID()]; seen {
			if m.FinalScore() > survivors[j].Match.FinalScore() {
				survivors[j].Match = *m
			}
			continue
		}
		best[m.ProductID()] = len(survivors)
		survivors = append(survivors, Recommendation{Product: p, Match: *m})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := &survivors[i], &survivors[j]
		if a.Match.FinalScore() != b.Match.FinalScore() {
			return a.Match.FinalScore() > b.Match.FinalScore()
		}
		if a.Product.Price() != b.Product.Price() {
			return a.Product.Price() < b.Product.Price()
		}
		return a.Product.ID() < b.Product.ID()
	})

	if len(survivors) > req.TopK() {
		survivors = survivors[:req.TopK()]
	}
	return survivors
}

// Rebuild loads the catalog, builds a fresh index, and atomically swaps it
// in. The previous index keeps serving until the swap; a failed rebuild
// leaves it untouched. Returns the new index size.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	products, err := s.catalog.Load()
	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	idx, err := Build(ctx, products, s.docEmbed, s.vocab)
	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("build index: %w", err)
	}

	s.handle.Swap(idx)
	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()
	metrics.IndexProducts.Set(float64(idx.Len()))

	logger.FromContext(ctx).Info("Index rebuilt",
		zap.Int("products", idx.Len()),
		zap.Time("built_at", idx.BuiltAt()),
	)
	return idx.Len(), nil
}

// Snapshot exposes the active index for read-only consumers.
func (s *Service) Snapshot() (*Index, error) {
	return s.handle.Snapshot()
}
