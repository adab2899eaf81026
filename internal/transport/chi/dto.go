package chi

import "time"

// ErrorCode identifies an API error category.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeInvalidQuery           ErrorCode = "invalid_query"
	CodeProductNotFound        ErrorCode = "product_not_found"
	CodeCatalogEmpty           ErrorCode = "catalog_empty"
	CodeIndexNotReady          ErrorCode = "index_not_ready"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RecommendFilters are the optional hard filters of a recommendation request.
type RecommendFilters struct {
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Material   string   `json:"material,omitempty"`
	Color      string   `json:"color,omitempty"`
}

// RecommendRequest is the body of POST /api/v1/recommend.
type RecommendRequest struct {
	Query   string            `json:"query"`
	TopK    *int              `json:"top_k,omitempty"`
	Filters *RecommendFilters `json:"filters,omitempty"`
}

// ProductResponse is the wire form of a catalog product.
type ProductResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Categories  []string `json:"categories,omitempty"`
	Material    string   `json:"material,omitempty"`
	Color       string   `json:"color,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// ScoreBreakdown exposes the per-factor sub-scores of a match.
type ScoreBreakdown struct {
	TextSimilarity float64 `json:"text_similarity"`
	CategoryScore  float64 `json:"category_score"`
	MaterialScore  float64 `json:"material_score"`
	ColorScore     float64 `json:"color_score"`
}

// RecommendationItem is one ranked result.
type RecommendationItem struct {
	Product   ProductResponse `json:"product"`
	Score     float64         `json:"score"`
	Breakdown ScoreBreakdown  `json:"breakdown"`
}

// RecommendResponse is the body of a successful recommendation.
type RecommendResponse struct {
	Query           string               `json:"query"`
	Items           []RecommendationItem `json:"items"`
	Total           int                  `json:"total"`
	TotalIndexed    int                  `json:"total_indexed"`
	KeywordFallback bool                 `json:"keyword_fallback"`
	Description     string               `json:"description"`
}

// ProductListResponse is an offset page of catalog products.
type ProductListResponse struct {
	Items  []ProductResponse `json:"items"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
	Total  int               `json:"total"`
}

// PriceBinResponse is one bucket of the price histogram.
type PriceBinResponse struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// NameCountResponse is a ranked (name, count) pair.
type NameCountResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AnalyticsResponse is the catalog summary.
type AnalyticsResponse struct {
	TotalProducts int                 `json:"total_products"`
	AveragePrice  float64             `json:"average_price"`
	MinPrice      float64             `json:"min_price"`
	MaxPrice      float64             `json:"max_price"`
	PriceBins     []PriceBinResponse  `json:"price_bins"`
	TopCategories []NameCountResponse `json:"top_categories"`
	TopBrands     []NameCountResponse `json:"top_brands"`
	TopMaterials  []NameCountResponse `json:"top_materials"`
}

// RebuildResponse reports a completed index rebuild.
type RebuildResponse struct {
	Products int       `json:"products"`
	BuiltAt  time.Time `json:"built_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	IndexProducts int               `json:"index_products"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}
