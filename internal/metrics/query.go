package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline and index Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total queries by intent and answer path",
		},
		[]string{"intent", "path"}, // path: direct, retrieval, fallback, error
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query processing time in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"path"},
	)

	RetrievedCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_candidates",
			Help:      "Number of candidates above the similarity cutoff per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10, 20},
		},
	)

	SynthesisFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_fallbacks_total",
			Help:      "Direct answers served by the secondary model or the default apology",
		},
		[]string{"kind"}, // secondary, apology
	)

	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Total index builds by outcome",
		},
		[]string{"status"},
	)

	IndexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Index build duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the active index snapshot",
		},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the active index snapshot",
		},
	)
)

var queryGroup = newGroup(
	QueriesTotal,
	QueryDuration,
	RetrievedCandidates,
	SynthesisFallbacksTotal,
	IndexBuildsTotal,
	IndexBuildDuration,
	IndexChunks,
	IndexDocuments,
)

// RegisterQueryMetrics registers the query and index metrics. Safe to call more than once.
func RegisterQueryMetrics() { queryGroup.register() }
