package recommend

import (
	"math"

	"github.com/furnimatch/furnimatch/internal/domain/recommend/match"
)

// Weights is the multi-factor score blend. Must sum to 1.
type Weights struct {
	Text     float64
	Category float64
	Material float64
	Color    float64
}

// scoreAll computes a Match for every indexed product, aligned with the
// index order. When no product has any keyword hit for the query, ranking
// degrades to pure text similarity for the whole request: keyword weights
// would otherwise drag every score down for purely descriptive queries.
// The second return value reports whether the fallback was taken.
func scoreAll(idx *Index, queryVec []float32, tokens []string, w Weights) ([]match.Match, bool) {
	n := idx.Len()
	textSims := make([]float64, n)
	catScores := make([]float64, n)
	matScores := make([]float64, n)
	colScores := make([]float64, n)

	anyKeyword := false
	for i := 0; i < n; i++ {
		textSims[i] = clamp01(cosine(queryVec, idx.vectors[i]))
		catScores[i] = overlap(tokens, idx.catSets[i])
		matScores[i] = overlap(tokens, idx.matSets[i])
		colScores[i] = overlap(tokens, idx.colSets[i])
		if catScores[i] > 0 || matScores[i] > 0 || colScores[i] > 0 {
			anyKeyword = true
		}
	}

	matches := make([]match.Match, n)
	for i := 0; i < n; i++ {
		final := textSims[i]
		if anyKeyword {
			final = w.Text*textSims[i] +
				w.Category*catScores[i] +
				w.Material*matScores[i] +
				w.Color*colScores[i]
		}
		matches[i] = match.New(
			idx.products[i].ID(), final,
			textSims[i], catScores[i], matScores[i], colScores[i],
		)
	}

	return matches, !anyKeyword
}

// overlap returns the fraction of query tokens present in the keyword set.
func overlap(tokens []string, set keywordSet) float64 {
	if len(tokens) == 0 || len(set) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if set.contains(tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// cosine computes cosine similarity between two vectors.
// Returns 0 for mismatched dimensions or zero-magnitude vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// clamp01 maps negative cosine values to 0 and caps at 1.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
