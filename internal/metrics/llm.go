package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat completion Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Chat completion duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total chat completion tokens consumed",
		},
		[]string{"model", "type"},
	)

	LLMQuotaRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "llm_quota_remaining",
			Help:      "Remaining daily requests and tokens for a catalog model",
		},
		[]string{"model", "kind"}, // kind: "requests" / "tokens"
	)

	LLMRateLimitWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_rate_limit_wait_seconds",
			Help:      "Time spent waiting for a client-side rate limiter token",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"model"},
	)
)

var llmGroup = newGroup(
	LLMRequestsTotal,
	LLMRequestDuration,
	LLMTokensTotal,
	LLMRateLimitWaitSeconds,
	LLMQuotaRemaining,
)

// RegisterLLMMetrics registers the chat completion metrics. Safe to call more than once.
func RegisterLLMMetrics() { llmGroup.register() }
