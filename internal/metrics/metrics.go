package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clicktrail",
		Name:      "resolutions_total",
		Help:      "Short code resolutions by outcome.",
	}, []string{"outcome"})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clicktrail",
		Name:      "resolve_duration_seconds",
		Help:      "Time spent deciding a redirect, excluding deferred click recording.",
		Buckets:   prometheus.DefBuckets,
	})

	ClicksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clicktrail",
		Name:      "clicks_recorded_total",
		Help:      "Click recording attempts by result.",
	}, []string{"result"})

	GeoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clicktrail",
		Name:      "geo_lookups_total",
		Help:      "Geolocation resolutions by source.",
	}, []string{"source"})
)
