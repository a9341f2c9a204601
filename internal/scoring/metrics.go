package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appraisal_reviews_total",
		Help: "Reviews recorded, by kind",
	}, []string{"kind"})

	anomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appraisal_anomalies_total",
		Help: "Recorded reviews at divergent level or above",
	}, []string{"kind", "level"})

	differenceObserved = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appraisal_difference",
		Help:    "Difference between a review and its target summary",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 0.8, 1, 2, 5, 10},
	}, []string{"kind"})

	evaluateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "appraisal_evaluate_duration_seconds",
		Help:    "Time spent loading history and measuring a review",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})
)
