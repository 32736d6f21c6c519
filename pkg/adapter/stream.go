package adapter

import (
	"context"
	"fmt"

	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
	"github.com/vnykmshr/stageflow/pkg/pipeline"
)

// Stream adapts reading sequences: a mapping whose "readings" field holds an
// ordered sequence of numbers. The summary reports the reading count and the
// arithmetic mean rounded to one decimal; an empty sequence has mean 0.
type Stream struct {
	summarizer
	pipe pipeline.Pipeline
}

// NewStream creates a stream adapter owning a pipeline with the default
// input/transform/output stage sequence.
func NewStream(id string) *Stream {
	return NewStreamWithPipeline(pipeline.NewWithStages(id, pipeline.DefaultStages()...))
}

// NewStreamWithPipeline creates a stream adapter around a caller-supplied
// pipeline.
func NewStreamWithPipeline(p pipeline.Pipeline) *Stream {
	return &Stream{pipe: p}
}

// ID returns the owned pipeline's identifier.
func (a *Stream) ID() string {
	return a.pipe.ID()
}

// Pipeline returns the owned pipeline.
func (a *Stream) Pipeline() pipeline.Pipeline {
	return a.pipe
}

// Stats returns the owned pipeline's execution statistics.
func (a *Stream) Stats() pipeline.ExecutionStats {
	return a.pipe.Stats()
}

// Process aggregates the readings, runs the full record through the owned
// pipeline, and reports count and mean. Input without a usable readings
// sequence is a decode failure: it is absorbed, the recovery counter is
// incremented, and an empty record is returned.
func (a *Stream) Process(ctx context.Context, data interface{}) interface{} {
	record, ok := data.(map[string]interface{})
	if !ok {
		a.pipe.RecordRecovery()
		a.setSummary("0 readings, avg: 0.0")
		return map[string]interface{}{}
	}

	readings, err := a.decodeReadings(record)
	if err != nil {
		a.pipe.RecordRecovery()
		a.setSummary("0 readings, avg: 0.0")
		return map[string]interface{}{}
	}

	count := len(readings)
	mean := 0.0
	if count > 0 {
		sum := 0.0
		for _, r := range readings {
			sum += r
		}
		mean = sum / float64(count)
	}

	out := a.pipe.Process(ctx, record)

	a.setSummary(fmt.Sprintf("%d readings, avg: %.1f", count, mean))
	return out
}

// decodeReadings extracts the numeric sequence from the record.
func (a *Stream) decodeReadings(record map[string]interface{}) ([]float64, error) {
	raw, exists := record["readings"]
	if !exists {
		return nil, sferrors.NewDecodeError(a.ID(), "missing readings field")
	}

	switch seq := raw.(type) {
	case []float64:
		return seq, nil
	case []int:
		readings := make([]float64, len(seq))
		for i, v := range seq {
			readings[i] = float64(v)
		}
		return readings, nil
	case []interface{}:
		readings := make([]float64, len(seq))
		for i, v := range seq {
			f, ok := toFloat(v)
			if !ok {
				return nil, sferrors.NewDecodeError(a.ID(), fmt.Sprintf("reading %v is not numeric", v))
			}
			readings[i] = f
		}
		return readings, nil
	default:
		return nil, sferrors.NewDecodeError(a.ID(), fmt.Sprintf("readings field has unsupported type %T", raw))
	}
}
