package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	targetsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "appraisal_targets",
		Help: "Distinct targets with at least one stored review",
	})

	storedReviews = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "appraisal_stored_reviews",
		Help: "Stored reviews, by kind",
	}, []string{"kind"})
)
