package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/product"
	"github.com/furnimatch/furnimatch/internal/usecase/recommend"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type mockSnapshotter struct {
	idx *recommend.Index
	err error
}

func (m *mockSnapshotter) Snapshot() (*recommend.Index, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.idx, nil
}

func snapshotterFor(t *testing.T, products []product.Product) *mockSnapshotter {
	t.Helper()
	idx, err := recommend.Build(context.Background(), products, stubEmbedder{}, recommend.DefaultVocabulary())
	if err != nil {
		t.Fatalf("recommend.Build: %v", err)
	}
	return &mockSnapshotter{idx: idx}
}

func mustProduct(t *testing.T, id, title, brand string, price float64, categories []string, material string) product.Product {
	t.Helper()
	p, err := product.New(id, title, brand, "", price, categories, material, "", "")
	if err != nil {
		t.Fatalf("product.New: %v", err)
	}
	return p
}

func TestReport_PriceStats(t *testing.T) {
	snap := snapshotterFor(t, []product.Product{
		mustProduct(t, "p1", "Chair", "Acme", 25, []string{"Chairs"}, "wood"),
		mustProduct(t, "p2", "Table", "Acme", 75, []string{"Tables"}, "wood"),
		mustProduct(t, "p3", "Sofa", "Plush", 1200, []string{"Sofas"}, "fabric"),
	})

	rep, err := New(snap).Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.TotalProducts != 3 {
		t.Errorf("total: expected 3, got %d", rep.TotalProducts)
	}
	if rep.MinPrice != 25 || rep.MaxPrice != 1200 {
		t.Errorf("price range: expected [25, 1200], got [%v, %v]", rep.MinPrice, rep.MaxPrice)
	}
	wantAvg := (25.0 + 75.0 + 1200.0) / 3.0
	if math.Abs(rep.AveragePrice-wantAvg) > 1e-9 {
		t.Errorf("average: expected %v, got %v", wantAvg, rep.AveragePrice)
	}
}

func TestReport_PriceBins(t *testing.T) {
	snap := snapshotterFor(t, []product.Product{
		mustProduct(t, "p1", "A", "X", 0, nil, ""),
		mustProduct(t, "p2", "B", "X", 49.99, nil, ""),
		mustProduct(t, "p3", "C", "X", 50, nil, ""),
		mustProduct(t, "p4", "D", "X", 199.99, nil, ""),
		mustProduct(t, "p5", "E", "X", 500, nil, ""),
		mustProduct(t, "p6", "F", "X", 5000, nil, ""),
	})

	rep, err := New(snap).Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	want := map[string]int{
		"$0-50":     2,
		"$50-100":   1,
		"$100-200":  1,
		"$200-500":  0,
		"$500-1000": 1,
		"$1000+":    1,
	}
	for _, bin := range rep.PriceBins {
		if bin.Count != want[bin.Label] {
			t.Errorf("bin %s: expected %d, got %d", bin.Label, want[bin.Label], bin.Count)
		}
	}
}

func TestReport_TopCounts(t *testing.T) {
	snap := snapshotterFor(t, []product.Product{
		mustProduct(t, "p1", "A", "Acme", 10, []string{"Chairs", "Seating"}, "wood"),
		mustProduct(t, "p2", "B", "Acme", 10, []string{"Chairs"}, "metal"),
		mustProduct(t, "p3", "C", "Plush", 10, []string{"Sofas"}, "wood"),
	})

	rep, err := New(snap).Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if len(rep.TopCategories) == 0 || rep.TopCategories[0].Name != "Chairs" || rep.TopCategories[0].Count != 2 {
		t.Errorf("top category: expected Chairs x2, got %+v", rep.TopCategories)
	}
	if len(rep.TopBrands) == 0 || rep.TopBrands[0].Name != "Acme" || rep.TopBrands[0].Count != 2 {
		t.Errorf("top brand: expected Acme x2, got %+v", rep.TopBrands)
	}
	if len(rep.TopMaterials) == 0 || rep.TopMaterials[0].Name != "wood" || rep.TopMaterials[0].Count != 2 {
		t.Errorf("top material: expected wood x2, got %+v", rep.TopMaterials)
	}
}

func TestReport_EmptyMaterialExcluded(t *testing.T) {
	snap := snapshotterFor(t, []product.Product{
		mustProduct(t, "p1", "A", "X", 10, nil, ""),
	})

	rep, err := New(snap).Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(rep.TopMaterials) != 0 {
		t.Errorf("blank materials should not be counted, got %+v", rep.TopMaterials)
	}
}

func TestReport_IndexNotReady(t *testing.T) {
	snap := &mockSnapshotter{err: domain.ErrIndexNotReady}
	if _, err := New(snap).Report(); !errors.Is(err, domain.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}
