package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for configuration loading and merging.
type Metrics struct {
	config MetricsConfig

	// Merge metrics
	strategyResolutions *prometheus.CounterVec
	unresolvedConflicts prometheus.Counter

	// Source metrics
	sourceLoads *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		strategyResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "merge",
				Name:      "strategy_resolutions_total",
				Help:      "Total number of merge conflicts resolved, by strategy",
			},
			[]string{"strategy"},
		),
		unresolvedConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "merge",
				Name:      "conflicts_total",
				Help:      "Total number of merge conflicts no strategy could resolve",
			},
		),
		sourceLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "config",
				Name:      "source_loads_total",
				Help:      "Total number of configuration source lookups, by kind and result",
			},
			[]string{"kind", "result"},
		),
	}

	// Register all metrics
	collectors := []prometheus.Collector{
		m.strategyResolutions,
		m.unresolvedConflicts,
		m.sourceLoads,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// StrategyResolved records a conflict resolved by strategy.
func (m *Metrics) StrategyResolved(strategy, _ string) {
	if m.strategyResolutions == nil {
		return
	}
	m.strategyResolutions.WithLabelValues(strategy).Inc()
}

// ConflictUnresolved records a conflict that no strategy resolved.
func (m *Metrics) ConflictUnresolved(_ string) {
	if m.unresolvedConflicts == nil {
		return
	}
	m.unresolvedConflicts.Inc()
}

// SourceLoaded records the outcome of looking up a configuration source.
func (m *Metrics) SourceLoaded(kind string, found bool) {
	if m.sourceLoads == nil {
		return
	}
	result := "not_found"
	if found {
		result = "found"
	}
	m.sourceLoads.WithLabelValues(kind, result).Inc()
}

// Registry returns the Prometheus registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry to path in the Prometheus text format,
// replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m.registry == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
