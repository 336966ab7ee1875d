package facet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	computeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "facet_computation_duration_seconds",
			Help:    "Duration of a full facet computation fan-out in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scoped"},
	)

	facetsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facet_dropped_total",
			Help: "Total number of facets dropped due to sub-query failures",
		},
		[]string{"facet"},
	)
)
