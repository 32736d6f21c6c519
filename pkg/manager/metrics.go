package manager

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/stageflow/pkg/metrics"
)

// MetricsManager wraps a Manager with Prometheus metrics collection.
type MetricsManager struct {
	manager  Manager
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new manager with metrics enabled.
func NewWithMetrics(name string) Manager {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithMetricsConfig(name, config)
}

// NewWithMetricsConfig creates a new manager with custom metrics configuration.
func NewWithMetricsConfig(name string, metricsConfig metrics.Config) Manager {
	baseManager := New()

	if !metricsConfig.Enabled {
		return baseManager
	}

	// The default registerer already carries the shared metric set.
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil && metricsConfig.Registry != prometheus.DefaultRegisterer {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsManager{
		manager:  baseManager,
		name:     name,
		registry: registry,
		enabled:  true,
	}
}

// Register inserts the handler and updates the registered gauge.
func (mm *MetricsManager) Register(h Handler) error {
	err := mm.manager.Register(h)

	if mm.enabled && err == nil {
		mm.registry.ManagerRegistered.WithLabelValues(mm.name).Set(float64(mm.manager.Len()))
	}

	return err
}

// Unregister removes the handler and updates the registered gauge.
func (mm *MetricsManager) Unregister(id string) bool {
	removed := mm.manager.Unregister(id)

	if mm.enabled && removed {
		mm.registry.ManagerRegistered.WithLabelValues(mm.name).Set(float64(mm.manager.Len()))
	}

	return removed
}

// Get returns the handler registered under the identifier.
func (mm *MetricsManager) Get(id string) (Handler, bool) {
	return mm.manager.Get(id)
}

// IDs returns the identifiers of all registered handlers.
func (mm *MetricsManager) IDs() []string {
	return mm.manager.IDs()
}

// Len returns the number of registered handlers.
func (mm *MetricsManager) Len() int {
	return mm.manager.Len()
}

// Dispatch routes data to a registered handler and records dispatch metrics.
func (mm *MetricsManager) Dispatch(ctx context.Context, id string, data interface{}) (interface{}, error) {
	result, err := mm.manager.Dispatch(ctx, id, data)

	if mm.enabled {
		if err == nil {
			mm.registry.ManagerDispatches.WithLabelValues(id).Inc()
		} else {
			mm.registry.ManagerDispatchMisses.WithLabelValues(id).Inc()
		}
	}

	return result, err
}

// SetChain stores the ordered chain plan used by ExecuteChain.
func (mm *MetricsManager) SetChain(ids ...string) {
	mm.manager.SetChain(ids...)
}

// ChainPlan returns a copy of the stored chain plan.
func (mm *MetricsManager) ChainPlan() []string {
	return mm.manager.ChainPlan()
}

// ExecuteChain runs data through the stored chain plan.
func (mm *MetricsManager) ExecuteChain(ctx context.Context, data interface{}) interface{} {
	return mm.Chain(ctx, data, mm.manager.ChainPlan()...)
}

// Chain runs data through the named pipelines and records chain metrics.
func (mm *MetricsManager) Chain(ctx context.Context, data interface{}, ids ...string) interface{} {
	if mm.enabled {
		mm.registry.ManagerChainExecutions.WithLabelValues(mm.name).Inc()
		for _, id := range ids {
			if _, exists := mm.manager.Get(id); !exists {
				mm.registry.ManagerChainSkips.WithLabelValues(mm.name).Inc()
			}
		}
	}

	return mm.manager.Chain(ctx, data, ids...)
}

// Close releases the registry and zeroes the registered gauge.
func (mm *MetricsManager) Close() error {
	err := mm.manager.Close()

	if mm.enabled && err == nil {
		mm.registry.ManagerRegistered.WithLabelValues(mm.name).Set(0)
	}

	return err
}

// EnableMetrics enables metrics collection.
func (mm *MetricsManager) EnableMetrics(config metrics.Config) error {
	mm.enabled = config.Enabled

	if config.Registry == prometheus.DefaultRegisterer {
		mm.registry = metrics.DefaultRegistry
	} else if config.Registry != nil {
		mm.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mm *MetricsManager) DisableMetrics() {
	mm.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mm *MetricsManager) MetricsEnabled() bool {
	return mm.enabled
}
