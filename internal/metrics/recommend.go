package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation engine Prometheus metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "furnimatch",
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"status"}, // "success" / "error"
	)

	RecommendResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "furnimatch",
			Name:      "recommend_results_returned",
			Help:      "Number of results returned per recommendation request",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	RecommendFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "furnimatch",
			Name:      "recommend_keyword_fallback_total",
			Help:      "Requests ranked by pure text similarity because no keyword vocabulary matched",
		},
	)

	IndexProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "furnimatch",
			Name:      "index_products",
			Help:      "Number of products in the active index",
		},
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "furnimatch",
			Name:      "index_rebuilds_total",
			Help:      "Total number of index rebuilds",
		},
		[]string{"status"},
	)
)

var recMetricsRegistered bool

// RegisterRecommendMetrics registers recommendation metrics. Must be called once from main.
func RegisterRecommendMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendRequestsTotal)
	prometheus.MustRegister(RecommendResultsReturned)
	prometheus.MustRegister(RecommendFallbackTotal)
	prometheus.MustRegister(IndexProducts)
	prometheus.MustRegister(IndexRebuildsTotal)
	recMetricsRegistered = true
}
