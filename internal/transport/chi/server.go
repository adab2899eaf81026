// Package chi is the HTTP transport: request decoding, domain error
// mapping, and the REST routes of the recommendation API.
package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/product"
	"github.com/furnimatch/furnimatch/internal/domain/recommend/filters"
	"github.com/furnimatch/furnimatch/internal/domain/recommend/request"
	"github.com/furnimatch/furnimatch/internal/usecase/analytics"
	"github.com/furnimatch/furnimatch/internal/usecase/describe"
	healthuc "github.com/furnimatch/furnimatch/internal/usecase/health"
	recommenduc "github.com/furnimatch/furnimatch/internal/usecase/recommend"
	"github.com/furnimatch/furnimatch/internal/version"
)

// Product listing page limits.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server hosts the REST API handlers.
type Server struct {
	recommend     *recommenduc.Service
	analytics     *analytics.Service
	health        *healthuc.Service
	defaultTopK   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaultTopK is used for
// recommendation requests that omit top_k.
func NewServer(
	recommend *recommenduc.Service,
	analyticsSvc *analytics.Service,
	health *healthuc.Service,
	defaultTopK int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend:   recommend,
		analytics:   analyticsSvc,
		health:      health,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, CodeProductNotFound),
		sentinelHandler(domain.ErrEmptyCatalog, http.StatusServiceUnavailable, CodeCatalogEmpty),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, CodeIndexNotReady),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommend", s.Recommend)
		r.Get("/analytics", s.Analytics)
		r.Get("/products", s.ListProducts)
		r.Get("/products/{id}", s.GetProduct)
		r.Post("/index/rebuild", s.RebuildIndex)
	})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "furnimatch",
		Version: version.Version,
		Status:  "running",
	})
}

// Recommend handles POST /api/v1/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Validate explicitly provided top_k (nil means "use the configured default").
	topK := s.defaultTopK
	if req.TopK != nil {
		if *req.TopK <= 0 || *req.TopK > request.MaxTopK {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("top_k must be between 1 and %d", request.MaxTopK))
			return
		}
		topK = *req.TopK
	}

	f, err := filtersFromRequest(req.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	domReq, err := request.New(req.Query, topK, f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.recommend.Recommend(r.Context(), &domReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]RecommendationItem, len(res.Recommendations))
	for i := range res.Recommendations {
		items[i] = recommendationToResponse(&res.Recommendations[i])
	}

	writeJSON(w, http.StatusOK, RecommendResponse{
		Query:           domReq.Query(),
		Items:           items,
		Total:           len(items),
		TotalIndexed:    res.TotalIndexed,
		KeywordFallback: res.Fallback,
		Description:     describe.Summary(res.Recommendations, domReq.Query()),
	})
}

// Analytics handles GET /api/v1/analytics.
func (s *Server) Analytics(w http.ResponseWriter, _ *http.Request) {
	rep, err := s.analytics.Report()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := AnalyticsResponse{
		TotalProducts: rep.TotalProducts,
		AveragePrice:  rep.AveragePrice,
		MinPrice:      rep.MinPrice,
		MaxPrice:      rep.MaxPrice,
		PriceBins:     make([]PriceBinResponse, len(rep.PriceBins)),
		TopCategories: nameCountsToResponse(rep.TopCategories),
		TopBrands:     nameCountsToResponse(rep.TopBrands),
		TopMaterials:  nameCountsToResponse(rep.TopMaterials),
	}
	for i, b := range rep.PriceBins {
		resp.PriceBins[i] = PriceBinResponse{Label: b.Label, Count: b.Count}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListProducts handles GET /api/v1/products.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "offset must be a non-negative integer")
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit <= 0 || limit > maxPageSize {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("limit must be between 1 and %d", maxPageSize))
		return
	}

	idx, err := s.recommend.Snapshot()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	products := idx.Products()
	total := len(products)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := products[offset:end]
	items := make([]ProductResponse, len(page))
	for i := range page {
		items[i] = productToResponse(&page[i])
	}

	writeJSON(w, http.StatusOK, ProductListResponse{
		Items:  items,
		Offset: offset,
		Limit:  limit,
		Total:  total,
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	idx, err := s.recommend.Snapshot()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	p, ok := idx.ProductByID(id)
	if !ok {
		s.handleDomainError(w, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound))
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(&p))
}

// RebuildIndex handles POST /api/v1/index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	n, err := s.recommend.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := RebuildResponse{Products: n}
	if idx, err := s.recommend.Snapshot(); err == nil {
		resp.BuiltAt = idx.BuiltAt()
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:        string(report.Status),
		Checks:        checks,
		IndexProducts: report.IndexProducts,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func filtersFromRequest(f *RecommendFilters) (filters.Filters, error) {
	if f == nil {
		return filters.Filters{}, nil
	}
	out, err := filters.New(f.MinPrice, f.MaxPrice, f.Categories, f.Material, f.Color)
	if err != nil {
		return filters.Filters{}, fmt.Errorf("parse filters: %w", err)
	}
	return out, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func productToResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID(),
		Title:       p.Title(),
		Brand:       p.Brand(),
		Description: p.Description(),
		Price:       p.Price(),
		Categories:  p.Categories(),
		Material:    p.Material(),
		Color:       p.Color(),
		ImageURL:    p.ImageURL(),
	}
}

func recommendationToResponse(rec *recommenduc.Recommendation) RecommendationItem {
	return RecommendationItem{
		Product: productToResponse(&rec.Product),
		Score:   rec.Match.FinalScore(),
		Breakdown: ScoreBreakdown{
			TextSimilarity: rec.Match.TextSimilarity(),
			CategoryScore:  rec.Match.CategoryScore(),
			MaterialScore:  rec.Match.MaterialScore(),
			ColorScore:     rec.Match.ColorScore(),
		},
	}
}

func nameCountsToResponse(in []analytics.NameCount) []NameCountResponse {
	out := make([]NameCountResponse, len(in))
	for i, nc := range in {
		out[i] = NameCountResponse{Name: nc.Name, Count: nc.Count}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrProductNotFound,
		domain.ErrEmptyCatalog,
		domain.ErrIndexNotReady,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
