package observe

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/rover/pkg/reactive"
)

// MetricsConfig configures Prometheus metrics for a runtime.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "rover").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reactive").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "rover",
		Subsystem: "reactive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that exports Prometheus metrics.
type Metrics struct {
	writes          *prometheus.CounterVec
	derivedComputes *prometheus.CounterVec
	derivedDuration prometheus.Histogram
	effectRuns      *prometheus.CounterVec
	effectDuration  prometheus.Histogram
	drains          prometheus.Counter
	drainRuns       prometheus.Histogram
	drainDuration   prometheus.Histogram
}

var _ reactive.Observer = (*Metrics)(nil)

// NewMetrics registers the runtime metrics and returns the observer.
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of value writes, by whether they committed a change",
			ConstLabels: config.ConstLabels,
		}, []string{"changed"}),

		derivedComputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "derived_computes_total",
			Help:        "Total number of derived value evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		derivedDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "derived_compute_duration_seconds",
			Help:        "Derived value evaluation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_run_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		drains: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_drains_total",
			Help:        "Total number of batch drains that ran effects",
			ConstLabels: config.ConstLabels,
		}),

		drainRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_drain_effects",
			Help:        "Effects run per batch drain",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
		}),

		drainDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_drain_duration_seconds",
			Help:        "Batch drain duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// ValueWritten implements reactive.Observer.
func (m *Metrics) ValueWritten(_ reactive.ValueID, changed bool) {
	m.writes.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// DerivedComputed implements reactive.Observer.
func (m *Metrics) DerivedComputed(_ reactive.DerivedID, elapsed time.Duration, err error) {
	m.derivedComputes.WithLabelValues(status(err)).Inc()
	m.derivedDuration.Observe(elapsed.Seconds())
}

// EffectRan implements reactive.Observer.
func (m *Metrics) EffectRan(_ reactive.EffectID, elapsed time.Duration, err error) {
	m.effectRuns.WithLabelValues(status(err)).Inc()
	m.effectDuration.Observe(elapsed.Seconds())
}

// BatchDrained implements reactive.Observer.
func (m *Metrics) BatchDrained(runs int, elapsed time.Duration) {
	m.drains.Inc()
	m.drainRuns.Observe(float64(runs))
	m.drainDuration.Observe(elapsed.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
