package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast update pipeline.
type Metrics struct {
	CyclesTotal      *prometheus.CounterVec // labels: outcome={success,error,skipped}
	ChunkFailures    prometheus.Counter
	ProviderRequests *prometheus.CounterVec // labels: kind={main,freezing}, outcome={success,error}

	ResortsPublished prometheus.Gauge // resorts merged by the last cycle
	DatasetSize      prometheus.Gauge
	CycleDuration    prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.ChunkFailures,
		m.ProviderRequests,
		m.ResortsPublished,
		m.DatasetSize,
		m.CycleDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so parallel
// tests never hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowcast",
			Name:      "update_cycles_total",
			Help:      "Update cycles by outcome.",
		}, []string{"outcome"}),
		ChunkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowcast",
			Name:      "chunk_failures_total",
			Help:      "Request chunks whose provider calls failed.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowcast",
			Name:      "provider_requests_total",
			Help:      "Outbound provider calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ResortsPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snowcast",
			Name:      "resorts_published",
			Help:      "Resort records produced by the most recent cycle.",
		}),
		DatasetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snowcast",
			Name:      "dataset_size",
			Help:      "Resort records currently in the published dataset.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "snowcast",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete update cycle.",
			Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 1800, 3600},
		}),
	}
}
