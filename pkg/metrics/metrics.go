// Package metrics provides Prometheus instrumentation for stageflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for stageflow components.
type Registry struct {
	// Pipeline Metrics
	PipelineExecutions *prometheus.CounterVec
	PipelineSuccesses  *prometheus.CounterVec
	PipelineFailures   *prometheus.CounterVec
	PipelineRecoveries *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	StageExecutions    *prometheus.CounterVec
	StageErrors        *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec

	// Adapter Metrics
	AdapterProcessed      *prometheus.CounterVec
	AdapterDecodeFailures *prometheus.CounterVec

	// Manager Metrics
	ManagerDispatches      *prometheus.CounterVec
	ManagerDispatchMisses  *prometheus.CounterVec
	ManagerChainExecutions *prometheus.CounterVec
	ManagerChainSkips      *prometheus.CounterVec
	ManagerRegistered      *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by stageflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		PipelineExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "pipeline",
				Name:      "executions_total",
				Help:      "Total number of pipeline executions",
			},
			[]string{"pipeline"},
		),

		PipelineSuccesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "pipeline",
				Name:      "successes_total",
				Help:      "Total number of executions in which every stage succeeded",
			},
			[]string{"pipeline"},
		),

		PipelineFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "pipeline",
				Name:      "failures_total",
				Help:      "Total number of executions aborted by a stage failure",
			},
			[]string{"pipeline"},
		),

		PipelineRecoveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "pipeline",
				Name:      "recoveries_total",
				Help:      "Total number of degraded recoveries after stage or decode failures",
			},
			[]string{"pipeline"},
		),

		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stageflow",
				Subsystem: "pipeline",
				Name:      "execution_duration_seconds",
				Help:      "Time spent executing the full stage sequence",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),

		StageExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "stage",
				Name:      "executions_total",
				Help:      "Total number of individual stage executions",
			},
			[]string{"pipeline", "stage"},
		),

		StageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "stage",
				Name:      "errors_total",
				Help:      "Total number of stage failures",
			},
			[]string{"pipeline", "stage"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stageflow",
				Subsystem: "stage",
				Name:      "execution_duration_seconds",
				Help:      "Time spent executing a single stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),

		AdapterProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "adapter",
				Name:      "processed_total",
				Help:      "Total number of values processed by format adapters",
			},
			[]string{"adapter", "format"},
		),

		AdapterDecodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "adapter",
				Name:      "decode_failures_total",
				Help:      "Total number of absorbed format decode failures",
			},
			[]string{"adapter", "format"},
		),

		ManagerDispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "manager",
				Name:      "dispatches_total",
				Help:      "Total number of direct dispatches to registered pipelines",
			},
			[]string{"pipeline"},
		),

		ManagerDispatchMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "manager",
				Name:      "dispatch_misses_total",
				Help:      "Total number of dispatches to unregistered identifiers",
			},
			[]string{"pipeline"},
		),

		ManagerChainExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "manager",
				Name:      "chain_executions_total",
				Help:      "Total number of chain executions",
			},
			[]string{"manager"},
		),

		ManagerChainSkips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stageflow",
				Subsystem: "manager",
				Name:      "chain_skips_total",
				Help:      "Total number of chain links skipped because no pipeline was registered",
			},
			[]string{"manager"},
		),

		ManagerRegistered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stageflow",
				Subsystem: "manager",
				Name:      "registered_pipelines",
				Help:      "Number of pipelines currently registered",
			},
			[]string{"manager"},
		),
	}
}
