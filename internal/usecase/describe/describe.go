// Package describe renders a short natural-language summary for a set of
// recommendations, template based.
package describe

import (
	"fmt"
	"strings"

	"github.com/furnimatch/furnimatch/internal/usecase/recommend"
)

// topProductFloor is the text-similarity level above which the summary
// calls out the top result by name.
const topProductFloor = 0.6

const emptyResultText = "We couldn't find exact matches for your search. " +
	"Try different keywords or adjust your filters."

// Summary composes a description of the recommendations for a query.
// Materials and the dominant category are drawn from the top three results.
func Summary(recs []recommend.Recommendation, query string) string {
	if len(recs) == 0 {
		return emptyResultText
	}

	var parts []string
	if len(recs) == 1 {
		parts = append(parts, fmt.Sprintf("Found 1 great match for %q.", query))
	} else {
		parts = append(parts, fmt.Sprintf("Found %d excellent matches for %q.", len(recs), query))
	}

	top := &recs[0]
	if top.Match.TextSimilarity() > topProductFloor {
		parts = append(parts, fmt.Sprintf(
			"Our top recommendation is the %s by %s.",
			top.Product.Title(), top.Product.Brand(),
		))
	}

	if mats := leadingMaterials(recs); mats != "" {
		parts = append(parts, fmt.Sprintf("These pieces feature %s construction.", mats))
	}
	if cat := dominantCategory(recs); cat != "" {
		parts = append(parts, fmt.Sprintf("Perfect for your %s needs.", cat))
	}

	return strings.Join(parts, " ")
}

// leadingMaterials joins up to two distinct materials from the top three
// results, skipping blanks and abbreviations.
func leadingMaterials(recs []recommend.Recommendation) string {
	seen := make(map[string]struct{})
	var mats []string
	for i := 0; i < len(recs) && i < 3; i++ {
		m := strings.ToLower(recs[i].Product.Material())
		if len(m) <= 2 {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		mats = append(mats, m)
		if len(mats) == 2 {
			break
		}
	}
	return strings.Join(mats, " and ")
}

// dominantCategory returns the most common first category among the top
// three results, ties broken by first occurrence.
func dominantCategory(recs []recommend.Recommendation) string {
	counts := make(map[string]int)
	var order []string
	for i := 0; i < len(recs) && i < 3; i++ {
		cats := recs[i].Product.Categories()
		if len(cats) == 0 {
			continue
		}
		c := strings.ToLower(strings.TrimSpace(cats[0]))
		if c == "" {
			continue
		}
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}

	best := ""
	for _, c := range order {
		if best == "" || counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
