package adapter

import (
	"context"
	"fmt"

	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
	"github.com/vnykmshr/stageflow/pkg/pipeline"
)

// DefaultUnit is the unit assumed for record readings that carry none.
const DefaultUnit = "C"

// Record adapts key/value readings: a mapping with a numeric "value" field
// and an optional "unit" field. After a successful run it generates a
// summary embedding the value and unit. Non-mapping input is passed through
// the pipeline untouched (pass-through mode).
type Record struct {
	summarizer
	pipe pipeline.Pipeline
}

// NewRecord creates a record adapter owning a pipeline with the default
// input/transform/output stage sequence.
func NewRecord(id string) *Record {
	return NewRecordWithPipeline(pipeline.NewWithStages(id, pipeline.DefaultStages()...))
}

// NewRecordWithPipeline creates a record adapter around a caller-supplied
// pipeline.
func NewRecordWithPipeline(p pipeline.Pipeline) *Record {
	return &Record{pipe: p}
}

// ID returns the owned pipeline's identifier.
func (a *Record) ID() string {
	return a.pipe.ID()
}

// Pipeline returns the owned pipeline.
func (a *Record) Pipeline() pipeline.Pipeline {
	return a.pipe
}

// Stats returns the owned pipeline's execution statistics.
func (a *Record) Stats() pipeline.ExecutionStats {
	return a.pipe.Stats()
}

// Process runs the record through the owned pipeline and generates a
// value/unit summary. A mapping whose "value" field is present but not
// numeric is a decode failure: it is absorbed, the recovery counter is
// incremented, and an empty record is returned.
func (a *Record) Process(ctx context.Context, data interface{}) interface{} {
	record, ok := data.(map[string]interface{})
	if !ok {
		// Pass-through mode: execute anyway and return the raw result.
		out := a.pipe.Process(ctx, data)
		a.setSummary("processed record")
		return out
	}

	if err := a.checkValue(record); err != nil {
		a.pipe.RecordRecovery()
		a.setSummary("processed record")
		return map[string]interface{}{}
	}

	result := a.pipe.Execute(ctx, record)

	a.setSummary(a.summarize(result))
	return result.Output
}

// checkValue verifies that an explicit "value" field is numeric.
func (a *Record) checkValue(record map[string]interface{}) error {
	raw, exists := record["value"]
	if !exists {
		return nil
	}
	if _, ok := toFloat(raw); !ok {
		return sferrors.NewDecodeError(a.ID(), fmt.Sprintf("value field %v is not numeric", raw))
	}
	return nil
}

func (a *Record) summarize(result *pipeline.Result) string {
	out, ok := result.Output.(map[string]interface{})
	if result.Err != nil || !ok {
		return "processed record"
	}

	value, hasValue := toFloat(out["value"])
	if !hasValue {
		return "processed record"
	}

	unit := DefaultUnit
	if u, ok := out["unit"].(string); ok && u != "" {
		unit = u
	}

	return fmt.Sprintf("processed reading: %s°%s", formatNumber(value), unit)
}
