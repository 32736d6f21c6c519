package pipeline

import (
	"context"
)

// Stage represents a single processing stage in a pipeline.
//
// Stages are stateless by contract: a stage is constructed once and reused
// across many executions, possibly by several pipelines at the same time.
type Stage interface {
	// Process transforms the input value and returns the result.
	// A stage signals failure by returning an error; the owning pipeline
	// absorbs the failure and degrades rather than propagating it.
	Process(ctx context.Context, input interface{}) (interface{}, error)

	// Name returns a unique identifier for this stage.
	Name() string
}

// StageFunc is a function type that implements the Stage interface.
type StageFunc struct {
	name string
	fn   func(ctx context.Context, input interface{}) (interface{}, error)
}

// Process implements the Stage interface for StageFunc.
func (sf *StageFunc) Process(ctx context.Context, input interface{}) (interface{}, error) {
	return sf.fn(ctx, input)
}

// Name returns the stage name.
func (sf *StageFunc) Name() string {
	return sf.name
}

// NewStageFunc creates a new stage from a function.
func NewStageFunc(name string, fn func(ctx context.Context, input interface{}) (interface{}, error)) Stage {
	return &StageFunc{name: name, fn: fn}
}
