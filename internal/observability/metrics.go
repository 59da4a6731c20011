// Package observability holds the Prometheus instrumentation for the
// ingest pipeline and mosaic builder.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters, gauges, and histograms for scene
// processing and mosaic building.
type Metrics struct {
	ScenesStored  prometheus.Counter
	ScenesDropped *prometheus.CounterVec // label reason={decode,insufficient_data,reprojection,storage}
	SceneDuration prometheus.Histogram
	RunActive     prometheus.Gauge

	BucketsReduced      prometheus.Counter
	MosaicBuildDuration prometheus.Histogram
}

// NewMetrics creates the metric set without registering it; call
// Register with the target registry (tests use a private one).
func NewMetrics() *Metrics {
	return &Metrics{
		ScenesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hailmosaic",
			Name:      "scenes_stored_total",
			Help:      "Scenes processed end to end and persisted.",
		}),
		ScenesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hailmosaic",
			Name:      "scenes_dropped_total",
			Help:      "Scenes dropped, by failure class.",
		}, []string{"reason"}),
		SceneDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hailmosaic",
			Name:      "scene_processing_duration_seconds",
			Help:      "Duration of one project-resample-reproject-store cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hailmosaic",
			Name:      "run_active",
			Help:      "1 while an ingest run is in progress.",
		}),
		BucketsReduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hailmosaic",
			Name:      "buckets_reduced_total",
			Help:      "Non-empty time buckets reduced during mosaic builds.",
		}),
		MosaicBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hailmosaic",
			Name:      "mosaic_build_duration_seconds",
			Help:      "Duration of one day's mosaic build.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
	}
}

// Register registers every metric with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.ScenesStored,
		m.ScenesDropped,
		m.SceneDuration,
		m.RunActive,
		m.BucketsReduced,
		m.MosaicBuildDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
