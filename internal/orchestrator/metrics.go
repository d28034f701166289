package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "Settled turns by outcome",
	}, []string{"outcome"})

	metricInferenceLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_inference_latency_ms",
		Help:    "Remote inference round-trip latency",
		Buckets: prometheus.ExponentialBuckets(100, 1.6, 12),
	})

	metricQuestionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_questions_rejected_total",
		Help: "Submissions rejected for empty text",
	})
)
