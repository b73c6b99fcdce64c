package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline metrics.
var (
	// FallbacksTotal counts soft failures recovered with defaults
	// (component: classifier/router/decomposer; reason: parse/llm_error/unknown_label/...).
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of fallback defaults applied",
		},
		[]string{"component", "reason"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Total number of answered queries",
		},
		[]string{"strategy", "route", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	// RetrievalFailuresTotal counts datastore failures
	// (kind: precondition/table/embedding/unsupported_sort/all_tables).
	RetrievalFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrieval_failures_total",
			Help:      "Total number of retrieval failures",
		},
		[]string{"kind"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retry_attempts_total",
			Help:      "Total number of retried collaborator calls",
		},
		[]string{"operation"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers query pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(FallbacksTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(RetrievalFailuresTotal)
	prometheus.MustRegister(RetryAttemptsTotal)
	pipelineMetricsRegistered = true
}
