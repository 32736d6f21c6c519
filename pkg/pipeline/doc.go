/*
Package pipeline provides sequential staged data processing with absorbed
failures and execution statistics.

A pipeline owns an ordered list of stages. Execute passes the output of each
stage to the next. On the first stage failure the pipeline aborts the
remaining stages and returns the original, pre-execution input as a degraded
fallback; the failure is visible through the returned Result and the
pipeline's statistics, never as an error to the caller.

# Quick Start

	p := pipeline.NewWithStages("readings",
		pipeline.InputStage{},
		pipeline.TransformStage{},
		pipeline.OutputStage{},
	)

	result := p.Execute(context.Background(), map[string]interface{}{"value": 23.5})
	fmt.Printf("Output: %v\n", result.Output)

	stats := p.Stats()
	fmt.Printf("Success rate: %.0f%%\n", stats.SuccessRate())

# Custom Stages

Function-based stages:

	p.AddStageFunc("uppercase", func(_ context.Context, input interface{}) (interface{}, error) {
		if s, ok := input.(string); ok {
			return strings.ToUpper(s), nil
		}
		return input, nil
	})

Custom stage types implement Stage:

	type ScaleStage struct{ Factor float64 }

	func (s ScaleStage) Name() string { return "scale" }

	func (s ScaleStage) Process(_ context.Context, input interface{}) (interface{}, error) {
		v, ok := input.(float64)
		if !ok {
			return nil, errors.NewStageError("scale", "not a number")
		}
		return v * s.Factor, nil
	}

# Failure Semantics

Stages signal failure by returning an error. The pipeline increments Total,
Failed and Recoveries, skips the remaining stages, and hands back the input
it was given. Callers detect degradation by inspecting Result.Err,
Result.Recovered or the statistics. Context cancellation and timeout expiry
are converted into stage failures and take the same path.

# Metrics

NewWithMetrics and NewWithConfigAndMetrics wrap the pipeline with Prometheus
counters and histograms for executions, stage durations, failures and
recoveries.
*/
package pipeline
