package adapter

import (
	"context"
	"fmt"
	"strings"

	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
	"github.com/vnykmshr/stageflow/pkg/pipeline"
)

// Tabular adapts delimited text: either a single string with rows separated
// by line breaks and fields by commas, or an already-split row slice. The
// first non-empty row is the header; the summary reports the number of data
// rows, skipping empty ones.
type Tabular struct {
	summarizer
	pipe pipeline.Pipeline
}

// NewTabular creates a tabular adapter owning a pipeline with the default
// input/transform/output stage sequence.
func NewTabular(id string) *Tabular {
	return NewTabularWithPipeline(pipeline.NewWithStages(id, pipeline.DefaultStages()...))
}

// NewTabularWithPipeline creates a tabular adapter around a caller-supplied
// pipeline.
func NewTabularWithPipeline(p pipeline.Pipeline) *Tabular {
	return &Tabular{pipe: p}
}

// ID returns the owned pipeline's identifier.
func (a *Tabular) ID() string {
	return a.pipe.ID()
}

// Pipeline returns the owned pipeline.
func (a *Tabular) Pipeline() pipeline.Pipeline {
	return a.pipe
}

// Stats returns the owned pipeline's execution statistics.
func (a *Tabular) Stats() pipeline.ExecutionStats {
	return a.pipe.Stats()
}

// Process decodes the input into rows, runs them through the owned pipeline,
// and reports the processed-row count. Input that is neither a string nor a
// row slice is a decode failure: it is absorbed, the recovery counter is
// incremented, and an empty row slice is returned.
func (a *Tabular) Process(ctx context.Context, data interface{}) interface{} {
	rows, err := a.decode(data)
	if err != nil {
		a.pipe.RecordRecovery()
		a.setSummary("processed 0 rows")
		return []string{}
	}

	count := countDataRows(rows)
	out := a.pipe.Process(ctx, rows)

	a.setSummary(fmt.Sprintf("processed %d rows", count))
	return out
}

// decode accepts raw delimited text or a pre-split row slice.
func (a *Tabular) decode(data interface{}) ([]string, error) {
	switch v := data.(type) {
	case string:
		return strings.Split(v, "\n"), nil
	case []string:
		rows := make([]string, len(v))
		copy(rows, v)
		return rows, nil
	default:
		return nil, sferrors.NewDecodeError(a.ID(), fmt.Sprintf("expected delimited text or rows, got %T", data))
	}
}

// countDataRows counts non-empty rows excluding the header row.
func countDataRows(rows []string) int {
	count := 0
	for _, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		count++
	}
	if count > 0 {
		count-- // header
	}
	return count
}

// Fields splits a single row into its comma-separated fields with
// surrounding whitespace trimmed.
func Fields(row string) []string {
	parts := strings.Split(row, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
