package narration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSynthesisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narration_synthesis_total",
		Help: "Sentence synthesis requests by status",
	}, []string{"status"})

	metricSynthesisLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "narration_synthesis_latency_ms",
		Help:    "Latency of one sentence synthesis call",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})

	metricSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narration_sessions_started_total",
		Help: "Narration sessions started",
	})

	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "narration_active_sessions",
		Help: "Narration sessions currently loading or playing",
	})
)
