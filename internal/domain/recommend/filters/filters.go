package filters

import (
	"fmt"
	"strings"

	"github.com/furnimatch/furnimatch/internal/domain/product"
)

// Filters are hard post-filters applied after scoring.
// Nil price bounds mean unbounded; empty string/slice fields are ignored.
type Filters struct {
	minPrice   *float64
	maxPrice   *float64
	categories []string
	material   string
	color      string
}

// New validates and creates Filters.
// Price bounds must be non-negative and min must not exceed max.
func New(minPrice, maxPrice *float64, categories []string, material, color string) (Filters, error) {
	if minPrice != nil && *minPrice < 0 {
		return Filters{}, fmt.Errorf("min_price must be non-negative, got %v", *minPrice)
	}
	if maxPrice != nil && *maxPrice < 0 {
		return Filters{}, fmt.Errorf("max_price must be non-negative, got %v", *maxPrice)
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return Filters{}, fmt.Errorf("min_price %v exceeds max_price %v", *minPrice, *maxPrice)
	}

	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}

	return Filters{
		minPrice:   minPrice,
		maxPrice:   maxPrice,
		categories: cats,
		material:   strings.ToLower(strings.TrimSpace(material)),
		color:      strings.ToLower(strings.TrimSpace(color)),
	}, nil
}

// MinPrice returns the inclusive lower price bound (nil = unbounded).
func (f *Filters) MinPrice() *float64 { return f.minPrice }

// MaxPrice returns the inclusive upper price bound (nil = unbounded).
func (f *Filters) MaxPrice() *float64 { return f.maxPrice }

// Categories returns the requested categories (OR-matched).
func (f *Filters) Categories() []string { return f.categories }

// Material returns the material filter term.
func (f *Filters) Material() string { return f.material }

// Color returns the color filter term.
func (f *Filters) Color() string { return f.color }

// IsEmpty reports whether no filter criteria are set.
func (f *Filters) IsEmpty() bool {
	return f.minPrice == nil && f.maxPrice == nil &&
		len(f.categories) == 0 && f.material == "" && f.color == ""
}

// Matches reports whether the product passes every supplied criterion.
// Price bounds are inclusive; category is an OR across requested values
// (case-insensitive substring against the product's category list);
// material and color are case-insensitive substring matches.
func (f *Filters) Matches(p *product.Product) bool {
	if f.minPrice != nil && p.Price() < *f.minPrice {
		return false
	}
	if f.maxPrice != nil && p.Price() > *f.maxPrice {
		return false
	}
	if len(f.categories) > 0 && !f.matchesCategory(p) {
		return false
	}
	if f.material != "" && !strings.Contains(p.Material(), f.material) {
		return false
	}
	if f.color != "" && !strings.Contains(p.Color(), f.color) {
		return false
	}
	return true
}

func (f *Filters) matchesCategory(p *product.Product) bool {
	joined := strings.ToLower(strings.Join(p.Categories(), ", "))
	for _, want := range f.categories {
		if strings.Contains(joined, strings.ToLower(want)) {
			return true
		}
	}
	return false
}
