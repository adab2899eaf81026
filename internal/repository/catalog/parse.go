package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxCategories caps how many leading categories are kept per product;
// trailing entries in the source data are mostly navigation noise.
const maxCategories = 3

// parsePrice cleans currency formatting ("$1,299.99") and parses the value.
func parsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("missing price")
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q", raw)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %v", price)
	}
	return price, nil
}

// parseCategories parses a category cell that may be a plain comma-separated
// string or a stringified list like "['Furniture', 'Sofas']". Keeps at most
// maxCategories entries.
func parseCategories(raw string) []string {
	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	var cats []string
	for _, c := range strings.Split(cleaned, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
		if len(cats) == maxCategories {
			break
		}
	}
	return cats
}

var imageURLRegex = regexp.MustCompile(`https?://[^\s'",\]]+`)

// extractFirstImage pulls the first URL out of an image cell that may be a
// bare URL or a stringified list of URLs.
func extractFirstImage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "[") {
		return imageURLRegex.FindString(raw)
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return ""
}

// normalizeBrand substitutes the catalog's "unknown brand" sentinel for blanks.
func normalizeBrand(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown"
	}
	return raw
}
