package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the generation counters on a private registry so several
// generators (and tests) can coexist in one process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EntitiesEmitted   prometheus.Counter
	EntitiesFailed    prometheus.Counter
	ReferencesDropped prometheus.Counter
	NamesDeferred     prometheus.Counter
	RunDuration       prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		EntitiesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "declgen_entities_emitted_total",
			Help: "Total number of entities rendered and persisted.",
		}),
		EntitiesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "declgen_entities_failed_total",
			Help: "Total number of entities whose resolution or emission failed.",
		}),
		ReferencesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "declgen_references_dropped_total",
			Help: "Total number of discovered names without a matching declaration.",
		}),
		NamesDeferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "declgen_names_deferred_total",
			Help: "Total number of names pushed onto the pending queue.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "declgen_run_seconds",
			Help:    "Time spent generating one root.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the node-exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) ObserveEmitted() {
	if m != nil {
		m.EntitiesEmitted.Inc()
	}
}

func (m *Metrics) ObserveFailed() {
	if m != nil {
		m.EntitiesFailed.Inc()
	}
}

func (m *Metrics) ObserveDropped() {
	if m != nil {
		m.ReferencesDropped.Inc()
	}
}

func (m *Metrics) ObserveDeferred() {
	if m != nil {
		m.NamesDeferred.Inc()
	}
}

func (m *Metrics) ObserveRun(duration time.Duration) {
	if m != nil {
		m.RunDuration.Observe(duration.Seconds())
	}
}
