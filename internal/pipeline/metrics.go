package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline outcomes on a private registry so a one-shot CLI run
// can dump them for the node-exporter textfile collector.
type Metrics struct {
	registry  *prometheus.Registry
	processed prometheus.Counter
	failed    prometheus.Counter
	skipped   prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctfmetrics_matches_processed_total",
			Help: "Total number of matches classified successfully",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctfmetrics_matches_failed_total",
			Help: "Total number of matches that failed processing",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctfmetrics_matches_skipped_total",
			Help: "Total number of ineligible or already stored matches",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ctfmetrics_match_duration_seconds",
			Help:    "Time spent decoding and classifying one match",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.processed, m.failed, m.skipped, m.duration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteMetrics writes every collector to path in the Prometheus text format.
func (m *Metrics) WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(o outcome, seconds float64) {
	if m == nil {
		return
	}
	switch o {
	case outcomeProcessed:
		m.processed.Inc()
	case outcomeFailed:
		m.failed.Inc()
	case outcomeSkipped:
		m.skipped.Inc()
	}
	m.duration.Observe(seconds)
}
