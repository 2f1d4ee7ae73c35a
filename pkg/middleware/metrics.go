package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stratum-go/stratum/pkg/compose"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "stratum").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stage duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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
		Namespace: "stratum",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for the pipeline.
type metrics struct {
	stageDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	shortCircuits *prometheus.CounterVec
	errorsTotal   prometheus.Counter
}

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_duration_seconds",
			Help:        "Pipeline stage duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"stage", "status"}),

		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_lookups_total",
			Help:        "Page-stage cache lookups by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		shortCircuits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "short_circuits_total",
			Help:        "Redirect and not-found pipeline terminations",
			ConstLabels: config.ConstLabels,
		}, []string{"stage", "kind"}),

		errorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pipeline_errors_total",
			Help:        "Errors reaching the pipeline boundary",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Metrics creates a Prometheus observer for composition pipelines. Attach the
// returned hooks to one or more pipelines.
//
// Registering twice against the same registry with the same namespace and
// subsystem panics (promauto); share one observer across pipelines instead.
func Metrics(opts ...MetricsOption) compose.Hooks {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := initMetrics(config)

	return compose.Hooks{
		OnStage: func(_ *compose.Ctx, stage compose.Stage, d time.Duration, err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.stageDuration.WithLabelValues(string(stage), status).Observe(d.Seconds())
		},
		OnCacheLookup: func(_ *compose.Ctx, _ string, hit bool) {
			result := "miss"
			if hit {
				result = "hit"
			}
			m.cacheLookups.WithLabelValues(result).Inc()
		},
		OnShortCircuit: func(_ *compose.Ctx, stage compose.Stage, kind compose.ResultKind) {
			m.shortCircuits.WithLabelValues(string(stage), kind.String()).Inc()
		},
		OnError: func(_ *compose.Ctx, _ error) {
			m.errorsTotal.Inc()
		},
	}
}
