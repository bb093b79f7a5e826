package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dreamsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lucid_dreams_started_total",
		Help: "Number of dream jobs that began running.",
	})

	dreamsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lucid_dreams_completed_total",
		Help: "Number of dream jobs that finished successfully.",
	})

	dreamsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lucid_dreams_failed_total",
		Help: "Number of dream jobs that ended in an error.",
	})

	dreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lucid_dream_duration_seconds",
		Help:    "Wall-clock duration of finished dream jobs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
