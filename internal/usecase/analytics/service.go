// Package analytics computes catalog summary statistics from the active
// product index: price distribution and the most common categories, brands,
// and materials.
package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/furnimatch/furnimatch/internal/usecase/recommend"
)

const topN = 10

// Price histogram bin edges; the last bin is open-ended.
var priceBinEdges = []float64{0, 50, 100, 200, 500, 1000}

// Snapshotter provides read access to the active index.
type Snapshotter interface {
	Snapshot() (*recommend.Index, error)
}

// PriceBin is one bucket of the price histogram.
type PriceBin struct {
	Label string
	Count int
}

// NameCount is a ranked (name, occurrences) pair.
type NameCount struct {
	Name  string
	Count int
}

// Report is the catalog summary.
type Report struct {
	TotalProducts int
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	PriceBins     []PriceBin
	TopCategories []NameCount
	TopBrands     []NameCount
	TopMaterials  []NameCount
}

// Service computes catalog analytics.
type Service struct {
	index Snapshotter
}

// New creates an analytics service over the index handle.
func New(index Snapshotter) *Service {
	return &Service{index: index}
}

// Report summarizes the active index. Fails with the index handle's error
// before the first build.
func (s *Service) Report() (Report, error) {
	idx, err := s.index.Snapshot()
	if err != nil {
		return Report{}, err
	}
	products := idx.Products()

	rep := Report{
		TotalProducts: len(products),
		PriceBins:     newPriceBins(),
	}

	cats := make(map[string]int)
	brands := make(map[string]int)
	mats := make(map[string]int)

	var priceSum float64
	for i := range products {
		p := &products[i]
		price := p.Price()
		priceSum += price
		if i == 0 || price < rep.MinPrice {
			rep.MinPrice = price
		}
		if price > rep.MaxPrice {
			rep.MaxPrice = price
		}
		rep.PriceBins[binFor(price)].Count++

		for _, c := range p.Categories() {
			cats[strings.TrimSpace(c)]++
		}
		brands[p.Brand()]++
		if m := p.Material(); m != "" {
			mats[m]++
		}
	}

	if len(products) > 0 {
		rep.AveragePrice = priceSum / float64(len(products))
	}
	rep.TopCategories = topCounts(cats, topN)
	rep.TopBrands = topCounts(brands, topN)
	rep.TopMaterials = topCounts(mats, topN)
	return rep, nil
}

func newPriceBins() []PriceBin {
	bins := make([]PriceBin, 0, len(priceBinEdges))
	for i, low := range priceBinEdges {
		if i+1 < len(priceBinEdges) {
			bins = append(bins, PriceBin{Label: label(low, priceBinEdges[i+1])})
		} else {
			bins = append(bins, PriceBin{Label: labelOpen(low)})
		}
	}
	return bins
}

func binFor(price float64) int {
	for i := 1; i < len(priceBinEdges); i++ {
		if price < priceBinEdges[i] {
			return i - 1
		}
	}
	return len(priceBinEdges) - 1
}

func label(low, high float64) string {
	return "$" + strconv.Itoa(int(low)) + "-" + strconv.Itoa(int(high))
}

func labelOpen(low float64) string {
	return "$" + strconv.Itoa(int(low)) + "+"
}

// topCounts ranks entries by count descending, name ascending for stability.
func topCounts(counts map[string]int, n int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
