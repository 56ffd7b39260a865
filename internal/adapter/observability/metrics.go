package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validations_total",
			Help: "Total number of persisted validation results by outcome",
		},
		[]string{"outcome"},
	)
	SearchAPICallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_api_calls_total",
			Help: "Total number of web search API calls issued",
		},
	)
	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens by component and direction",
		},
		[]string{"component", "direction"},
	)
	WorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workers_active",
			Help: "Number of workers currently validating a prediction",
		},
	)
	ValidationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "validation_duration_seconds",
			Help:    "End-to-end duration of one validation",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90, 180},
		},
	)
)

// InitMetrics registers all collectors on the default registry.
func InitMetrics() {
	prometheus.MustRegister(ValidationsTotal)
	prometheus.MustRegister(SearchAPICallsTotal)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(WorkersActive)
	prometheus.MustRegister(ValidationDuration)
}
