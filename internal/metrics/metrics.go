package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_duration_seconds",
			Help:    "Duration of model inference calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"model", "operation"},
	)

	InferenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_errors_total",
			Help: "Total number of failed model inference calls",
		},
		[]string{"model", "operation"},
	)

	FeedbackSnippets = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedback_snippets_per_analysis",
			Help:    "Number of deduplicated feedback snippets returned per analysis",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		},
	)

	IndexChunks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledge_index_chunks",
			Help: "Number of chunks in the knowledge-base index after the last build or load",
		},
	)

	AnalysisJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_jobs_total",
			Help: "Total number of analysis jobs by final status",
		},
		[]string{"status"},
	)

	SkillScoring = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skill_scoring_requests_total",
			Help: "Total number of profiles scored",
		},
	)
)

// ObserveInference records latency and, on failure, an error for one model call.
func ObserveInference(model, operation string, started time.Time, err error) {
	InferenceDuration.WithLabelValues(model, operation).Observe(time.Since(started).Seconds())
	if err != nil {
		InferenceErrors.WithLabelValues(model, operation).Inc()
	}
}
