/*
Package stageflow provides a staged-processing framework: pipelines push a
unit of data through an ordered sequence of stages, and a manager registers
named pipelines to route or chain data across them.

Core (pkg/pipeline):
  - Stage: a single transformation step with a uniform Process contract
  - Pipeline: ordered stages executed sequentially with execution statistics

Format adapters (pkg/adapter):
  - record: key/value readings with unit-aware summaries
  - tabular: delimited text with header-aware row counting
  - stream: numeric reading sequences with count and mean aggregation

Orchestration:
  - manager: registry + router with direct dispatch and ordered chaining
  - scheduler: interval and cron-driven dispatch into registered pipelines

Observability (pkg/metrics):
  - Prometheus counters and histograms for executions, failures, recoveries

Example usage:

	import (
		"github.com/vnykmshr/stageflow/pkg/adapter"
		"github.com/vnykmshr/stageflow/pkg/manager"
	)

	m := manager.New()
	m.Register(adapter.NewRecord("json"))

	result, err := m.Dispatch(ctx, "json", map[string]interface{}{"value": 23.5})
*/
package stageflow
