package chi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/product"
	"github.com/furnimatch/furnimatch/internal/domain/recommend/request"
	"github.com/furnimatch/furnimatch/internal/usecase/analytics"
	healthuc "github.com/furnimatch/furnimatch/internal/usecase/health"
	recommenduc "github.com/furnimatch/furnimatch/internal/usecase/recommend"
)

// --- Fixtures ---

type mockEmbedder struct {
	vecs map[string][]float32
	def  []float32
	err  error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.vecs[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: m.def}, nil
}

type mockCatalog struct {
	products []product.Product
	err      error
}

func (m *mockCatalog) Load() ([]product.Product, error) {
	return m.products, m.err
}

func mustProduct(t *testing.T, id, title string, price float64, categories []string, material, color string) product.Product {
	t.Helper()
	p, err := product.New(id, title, "Acme", title+" description", price, categories, material, color, "")
	if err != nil {
		t.Fatalf("product.New: %v", err)
	}
	return p
}

func testConfig() recommenduc.Config {
	return recommenduc.Config{
		MinSimilarity: 0.45,
		Weights:       recommenduc.Weights{Text: 0.75, Category: 0.15, Material: 0.05, Color: 0.05},
	}
}

// newTestRouter assembles the full handler stack over an in-memory index.
func newTestRouter(t *testing.T, products []product.Product, embed *mockEmbedder, cat *mockCatalog) http.Handler {
	return newTestRouterTopK(t, products, embed, cat, request.DefaultTopK)
}

// newTestRouterTopK is newTestRouter with a caller-chosen default top_k.
func newTestRouterTopK(t *testing.T, products []product.Product, embed *mockEmbedder, cat *mockCatalog, defaultTopK int) http.Handler {
	t.Helper()

	h := recommenduc.NewHandle()
	if len(products) > 0 {
		idx, err := recommenduc.Build(context.Background(), products, embed, recommenduc.DefaultVocabulary())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		h.Swap(idx)
	}
	if cat == nil {
		cat = &mockCatalog{products: products}
	}

	recSvc := recommenduc.New(h, embed, embed, cat, recommenduc.DefaultVocabulary(), testConfig())
	srv := NewServer(recSvc, analytics.New(recSvc), healthuc.New(recSvc, nil, nil), defaultTopK, zap.NewNop())

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return r
}

func defaultProducts(t *testing.T) []product.Product {
	t.Helper()
	return []product.Product{
		mustProduct(t, "sofa-1", "Velvet Sofa", 899, []string{"Furniture", "Sofas"}, "velvet", "blue"),
		mustProduct(t, "desk-1", "Standing Desk", 450, []string{"Furniture", "Desks"}, "oak", "brown"),
	}
}

func defaultEmbedder() *mockEmbedder {
	return &mockEmbedder{def: []float32{1, 0}}
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return e
}

// --- Recommend ---

func TestRecommend_HappyPath(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "blue velvet sofa"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Query != "blue velvet sofa" {
		t.Errorf("query echo: got %q", resp.Query)
	}
	if resp.Total != len(resp.Items) {
		t.Errorf("total %d != items %d", resp.Total, len(resp.Items))
	}
	if resp.TotalIndexed != 2 {
		t.Errorf("total_indexed: got %d, want 2", resp.TotalIndexed)
	}
	if len(resp.Items) == 0 {
		t.Fatal("expected at least one item")
	}
	if resp.Items[0].Product.ID != "sofa-1" {
		t.Errorf("top result: got %s, want sofa-1", resp.Items[0].Product.ID)
	}
	if resp.Items[0].Breakdown.CategoryScore == 0 {
		t.Error("expected a nonzero category sub-score for 'sofa'")
	}
	if resp.Description == "" {
		t.Error("expected a generated description")
	}
	for i := 1; i < len(resp.Items); i++ {
		if resp.Items[i].Score > resp.Items[i-1].Score {
			t.Errorf("items not sorted by score descending at %d", i)
		}
	}
}

func TestRecommend_EmptyQuery_400(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rr); e.Code != CodeInvalidQuery {
		t.Errorf("error code: got %s, want %s", e.Code, CodeInvalidQuery)
	}
}

func TestRecommend_OmittedTopK_UsesConfiguredDefault(t *testing.T) {
	// Both products match "furniture"; a configured default of 1 must
	// truncate the result when the request omits top_k.
	handler := newTestRouterTopK(t, defaultProducts(t), defaultEmbedder(), nil, 1)

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "furniture"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalIndexed != 2 {
		t.Fatalf("total_indexed: got %d, want 2", resp.TotalIndexed)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items: got %d, want the configured default of 1", len(resp.Items))
	}
}

func TestRecommend_ExplicitZeroTopK_400(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "sofa", "top_k": 0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rr); e.Code != CodeValidationFailed {
		t.Errorf("error code: got %s, want %s", e.Code, CodeValidationFailed)
	}
}

func TestRecommend_TopKTooLarge_400(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "sofa", "top_k": 1000}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRecommend_MalformedBody_400(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": `)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rr); e.Code != CodeBadRequest {
		t.Errorf("error code: got %s, want %s", e.Code, CodeBadRequest)
	}
}

func TestRecommend_InvalidFilters_400(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	body := `{"query": "sofa", "filters": {"min_price": 500, "max_price": 100}}`
	rr := doRequest(t, handler, "POST", "/api/v1/recommend", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rr); e.Code != CodeValidationFailed {
		t.Errorf("error code: got %s, want %s", e.Code, CodeValidationFailed)
	}
}

func TestRecommend_PriceFilterApplied(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	body := `{"query": "furniture", "filters": {"max_price": 500}}`
	rr := doRequest(t, handler, "POST", "/api/v1/recommend", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, item := range resp.Items {
		if item.Product.Price > 500 {
			t.Errorf("filter violated: %s at %v", item.Product.ID, item.Product.Price)
		}
	}
}

func TestRecommend_IndexNotReady_503(t *testing.T) {
	handler := newTestRouter(t, nil, defaultEmbedder(), &mockCatalog{})

	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "sofa"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if e := decodeError(t, rr); e.Code != CodeIndexNotReady {
		t.Errorf("error code: got %s, want %s", e.Code, CodeIndexNotReady)
	}
}

func TestRecommend_EmbeddingProviderDown_502(t *testing.T) {
	embed := defaultEmbedder()
	handler := newTestRouter(t, defaultProducts(t), embed, nil)

	embed.err = fmt.Errorf("upstream 500: %w", domain.ErrEmbeddingProviderError)
	rr := doRequest(t, handler, "POST", "/api/v1/recommend", `{"query": "sofa"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if e := decodeError(t, rr); e.Code != CodeEmbeddingProviderError {
		t.Errorf("error code: got %s, want %s", e.Code, CodeEmbeddingProviderError)
	}
}

// --- Products ---

func TestListProducts_Pagination(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "GET", "/api/v1/products?offset=1&limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp ProductListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("total: got %d, want 2", resp.Total)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(resp.Items))
	}
	if resp.Offset != 1 || resp.Limit != 5 {
		t.Errorf("page echo: got offset=%d limit=%d", resp.Offset, resp.Limit)
	}
}

func TestListProducts_BadLimit_400(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	for _, q := range []string{"limit=0", "limit=9999", "limit=abc", "offset=-1"} {
		rr := doRequest(t, handler, "GET", "/api/v1/products?"+q, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", q, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestGetProduct_Found(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "GET", "/api/v1/products/sofa-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp ProductResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "sofa-1" || resp.Title != "Velvet Sofa" {
		t.Errorf("unexpected product: %+v", resp)
	}
}

func TestGetProduct_NotFound_404(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "GET", "/api/v1/products/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if e := decodeError(t, rr); e.Code != CodeProductNotFound {
		t.Errorf("error code: got %s, want %s", e.Code, CodeProductNotFound)
	}
}

// --- Analytics ---

func TestAnalytics_OK(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "GET", "/api/v1/analytics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp AnalyticsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalProducts != 2 {
		t.Errorf("total_products: got %d, want 2", resp.TotalProducts)
	}
	if len(resp.PriceBins) == 0 {
		t.Error("expected price bins")
	}
}

func TestAnalytics_IndexNotReady_503(t *testing.T) {
	handler := newTestRouter(t, nil, defaultEmbedder(), &mockCatalog{})

	rr := doRequest(t, handler, "GET", "/api/v1/analytics", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

// --- Rebuild ---

func TestRebuildIndex_OK(t *testing.T) {
	cat := &mockCatalog{products: defaultProducts(t)}
	handler := newTestRouter(t, nil, defaultEmbedder(), cat)

	rr := doRequest(t, handler, "POST", "/api/v1/index/rebuild", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp RebuildResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Products != 2 {
		t.Errorf("products: got %d, want 2", resp.Products)
	}
	if resp.BuiltAt.IsZero() {
		t.Error("expected built_at timestamp")
	}
}

func TestRebuildIndex_EmptyCatalog_503(t *testing.T) {
	handler := newTestRouter(t, nil, defaultEmbedder(), &mockCatalog{err: domain.ErrEmptyCatalog})

	rr := doRequest(t, handler, "POST", "/api/v1/index/rebuild", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if e := decodeError(t, rr); e.Code != CodeCatalogEmpty {
		t.Errorf("error code: got %s, want %s", e.Code, CodeCatalogEmpty)
	}
}

// --- Health and root ---

func TestHealthCheck_Healthy(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	if resp.IndexProducts != 2 {
		t.Errorf("index_products: got %d, want 2", resp.IndexProducts)
	}
}

func TestHealthCheck_NoIndex_503(t *testing.T) {
	handler := newTestRouter(t, nil, defaultEmbedder(), &mockCatalog{})

	rr := doRequest(t, handler, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestRoot(t *testing.T) {
	handler := newTestRouter(t, defaultProducts(t), defaultEmbedder(), nil)

	rr := doRequest(t, handler, "GET", "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp RootResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "furnimatch" {
		t.Errorf("name: got %q", resp.Name)
	}
}
