package pipeline

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/stageflow/pkg/metrics"
)

// MetricsPipeline wraps a Pipeline with Prometheus metrics collection.
type MetricsPipeline struct {
	pipeline Pipeline
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new pipeline with metrics enabled.
func NewWithMetrics(id string) Pipeline {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(id, Config{}, config)
}

// NewWithConfigAndMetrics creates a new pipeline with custom config and metrics.
func NewWithConfigAndMetrics(id string, config Config, metricsConfig metrics.Config) Pipeline {
	basePipeline := NewWithConfig(id, config)

	if !metricsConfig.Enabled {
		return basePipeline
	}

	// The default registerer already carries the shared metric set.
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil && metricsConfig.Registry != prometheus.DefaultRegisterer {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsPipeline{
		pipeline: basePipeline,
		registry: registry,
		enabled:  true,
	}
}

// ID returns the pipeline's unique identifier.
func (mp *MetricsPipeline) ID() string {
	return mp.pipeline.ID()
}

// Execute runs the pipeline and records execution metrics.
func (mp *MetricsPipeline) Execute(ctx context.Context, input interface{}) *Result {
	result := mp.pipeline.Execute(ctx, input)

	if mp.enabled {
		id := mp.pipeline.ID()
		mp.registry.PipelineExecutions.WithLabelValues(id).Inc()
		mp.registry.PipelineDuration.WithLabelValues(id).Observe(result.Duration.Seconds())

		if result.Err == nil {
			mp.registry.PipelineSuccesses.WithLabelValues(id).Inc()
		} else {
			mp.registry.PipelineFailures.WithLabelValues(id).Inc()
			mp.registry.PipelineRecoveries.WithLabelValues(id).Inc()
		}

		for _, sr := range result.StageResults {
			mp.registry.StageExecutions.WithLabelValues(id, sr.StageName).Inc()
			mp.registry.StageDuration.WithLabelValues(id, sr.StageName).Observe(sr.Duration.Seconds())
			if sr.Err != nil {
				mp.registry.StageErrors.WithLabelValues(id, sr.StageName).Inc()
			}
		}
	}

	return result
}

// Process runs the pipeline and returns only the output value.
func (mp *MetricsPipeline) Process(ctx context.Context, input interface{}) interface{} {
	return mp.Execute(ctx, input).Output
}

// AddStage appends a stage to the wrapped pipeline.
func (mp *MetricsPipeline) AddStage(stage Stage) Pipeline {
	mp.pipeline.AddStage(stage)
	return mp
}

// AddStageFunc appends a stage built from a function.
func (mp *MetricsPipeline) AddStageFunc(name string, fn func(ctx context.Context, input interface{}) (interface{}, error)) Pipeline {
	mp.pipeline.AddStageFunc(name, fn)
	return mp
}

// Stages returns a copy of the ordered stage list.
func (mp *MetricsPipeline) Stages() []Stage {
	return mp.pipeline.Stages()
}

// Stats returns a snapshot of the pipeline execution statistics.
func (mp *MetricsPipeline) Stats() ExecutionStats {
	return mp.pipeline.Stats()
}

// StageStats returns per-stage statistics keyed by stage name.
func (mp *MetricsPipeline) StageStats() map[string]StageStats {
	return mp.pipeline.StageStats()
}

// RecordRecovery counts a degraded recovery and updates the recovery counter.
func (mp *MetricsPipeline) RecordRecovery() {
	mp.pipeline.RecordRecovery()

	if mp.enabled {
		mp.registry.PipelineRecoveries.WithLabelValues(mp.pipeline.ID()).Inc()
	}
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPipeline) EnableMetrics(config metrics.Config) error {
	mp.enabled = config.Enabled

	if config.Registry == prometheus.DefaultRegisterer {
		mp.registry = metrics.DefaultRegistry
	} else if config.Registry != nil {
		mp.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPipeline) DisableMetrics() {
	mp.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPipeline) MetricsEnabled() bool {
	return mp.enabled
}
