package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timscompare_load_seconds",
		Help:    "Time spent loading and resolving a method document.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	SegmentsResolved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timscompare_segments_per_load",
		Help:    "Number of segments produced by one load.",
		Buckets: []float64{1, 2, 4, 8, 16, 32},
	})

	DerivationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timscompare_derivation_outcomes_total",
		Help: "Derivation results per family and status.",
	}, []string{"family", "status"})

	ResolveAdditionalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timscompare_resolve_additional_seconds",
		Help:    "Time spent re-resolving a grown parameter set.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timscompare_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timscompare_watcher_reloads_total",
		Help: "Watcher reloads by result.",
	}, []string{"result"})
)
