package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsLatencyMs,
		aiFallbacks,
		aiPromptTokens,
	)
}

var (
	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "Text-generation call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider", "success"},
	)

	aiFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_fallback_replies_total",
			Help: "Replies served by the rule-based fallback responder.",
		},
	)

	aiPromptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens",
			Help:    "Best-effort prompt token counts per generation call.",
			Buckets: []float64{256, 512, 1024, 2048, 4096, 8192},
		},
	)
)

func ObserveGeneration(provider string, latencyMs int, success bool) {
	aiCallsLatencyMs.WithLabelValues(provider, strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func FallbackUsed() { aiFallbacks.Inc() }

func ObservePromptTokens(n int) { aiPromptTokens.Observe(float64(n)) }
