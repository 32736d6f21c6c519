package pipeline

import (
	"context"

	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
)

// InputStage rejects absent input and passes everything else through
// unchanged.
type InputStage struct{}

// Process returns the input unchanged, or a stage failure when it is nil.
func (InputStage) Process(_ context.Context, input interface{}) (interface{}, error) {
	if input == nil {
		return nil, sferrors.NewStageError("input", "invalid input")
	}
	return input, nil
}

// Name returns the stage name.
func (InputStage) Name() string { return "input" }

// TransformStage marks structured records as validated. A key/value mapping
// is copied and gets validated=true set; all other keys are preserved and
// the operation is idempotent. Any other value type passes through unchanged.
type TransformStage struct{}

// Process validates mapping input, passing other types through unchanged.
func (TransformStage) Process(_ context.Context, input interface{}) (interface{}, error) {
	if input == nil {
		return nil, sferrors.NewStageError("transform", "no data to transform")
	}

	record, ok := input.(map[string]interface{})
	if !ok {
		return input, nil
	}

	// Copy so a degraded fallback can still return the caller's original.
	augmented := make(map[string]interface{}, len(record)+1)
	for k, v := range record {
		augmented[k] = v
	}
	augmented["validated"] = true

	return augmented, nil
}

// Name returns the stage name.
func (TransformStage) Name() string { return "transform" }

// OutputStage is an identity pass-through. It exists as an explicit extension
// point for formatting side effects and must not mutate the value's
// observable content.
type OutputStage struct{}

// Process returns the input unchanged.
func (OutputStage) Process(_ context.Context, input interface{}) (interface{}, error) {
	return input, nil
}

// Name returns the stage name.
func (OutputStage) Name() string { return "output" }

// DefaultStages returns the standard input/transform/output stage sequence
// used by format adapters.
func DefaultStages() []Stage {
	return []Stage{InputStage{}, TransformStage{}, OutputStage{}}
}
