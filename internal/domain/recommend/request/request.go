package request

import (
	"fmt"
	"strings"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/recommend/filters"
)

// Request parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 1024
	DefaultTopK    = 5
	MaxTopK        = 50
)

// Request is a validated recommendation query.
type Request struct {
	query   string
	topK    int
	filters filters.Filters
}

// New validates and normalizes recommendation parameters.
// topK=0 means "not provided" and takes DefaultTopK; negative values are
// rejected. Validation failures wrap domain.ErrInvalidQuery.
func New(query string, topK int, f filters.Filters) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if topK < 0 {
		return Request{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Request{query: query, topK: topK, filters: f}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results to return.
func (r *Request) TopK() int { return r.topK }

// Filters returns the hard post-filters.
func (r *Request) Filters() filters.Filters { return r.filters }
