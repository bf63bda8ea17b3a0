package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation Prometheus metrics.
var (
	RecommendationCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinedex",
			Name:      "recommendation_candidates_total",
			Help:      "Total candidates contributed per recommendation tier",
		},
		[]string{"tier"},
	)

	RecommendationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinedex",
			Name:      "recommendation_request_duration_seconds",
			Help:      "Recommendation assembly duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"outcome"},
	)
)

var recMetricsRegistered bool

// RegisterRecommendationMetrics registers recommendation metrics. Must be called once from main.
func RegisterRecommendationMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendationCandidatesTotal)
	prometheus.MustRegister(RecommendationRequestDuration)
	recMetricsRegistered = true
}
