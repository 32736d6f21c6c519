package pipeline

import (
	"context"
	"sync"
	"time"

	sfcontext "github.com/vnykmshr/stageflow/pkg/common/context"
	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
)

// Pipeline pushes a unit of data through an ordered sequence of stages.
//
// Execution is strictly sequential: the output of stage k becomes the input
// of stage k+1. On the first stage failure the pipeline aborts the remaining
// stages and degrades to the pre-execution input; the failure is recorded in
// the execution statistics instead of being propagated to the caller.
type Pipeline interface {
	// ID returns the pipeline's unique identifier.
	ID() string

	// Execute runs the pipeline with the given input data. The returned
	// Result always carries a usable Output; an absorbed stage failure is
	// reported through Result.Err and the statistics.
	Execute(ctx context.Context, input interface{}) *Result

	// Process runs the pipeline and returns only the output value. It is
	// the entry point used by manager dispatch and chaining.
	Process(ctx context.Context, input interface{}) interface{}

	// AddStage appends a stage to the pipeline. Stages added after earlier
	// executions run after all existing stages; an in-flight execution works
	// on a snapshot and is not affected.
	AddStage(stage Stage) Pipeline

	// AddStageFunc appends a stage built from a function.
	AddStageFunc(name string, fn func(ctx context.Context, input interface{}) (interface{}, error)) Pipeline

	// Stages returns a copy of the ordered stage list.
	Stages() []Stage

	// Stats returns a snapshot of the pipeline execution statistics.
	Stats() ExecutionStats

	// StageStats returns per-stage statistics keyed by stage name.
	StageStats() map[string]StageStats

	// RecordRecovery counts a degraded recovery performed on the pipeline's
	// behalf, such as an adapter absorbing a decode failure.
	RecordRecovery()
}

// Result represents the outcome of a pipeline execution.
type Result struct {
	// Input is the original input data
	Input interface{}

	// Output is the final output data. After an absorbed failure it is the
	// pre-execution input, never a partial transform.
	Output interface{}

	// Err is the absorbed stage failure, nil when every stage succeeded
	Err error

	// Recovered reports whether the pipeline degraded to the original input
	Recovered bool

	// Duration is the total execution time
	Duration time.Duration

	// StageResults contains results from each executed stage
	StageResults []StageResult

	// StartTime is when the pipeline execution started
	StartTime time.Time

	// EndTime is when the pipeline execution finished
	EndTime time.Time
}

// StageResult represents the result of a single stage execution.
type StageResult struct {
	StageName string
	Input     interface{}
	Output    interface{}
	Err       error
	Duration  time.Duration
}

// ExecutionStats holds pipeline execution statistics. All counters are
// non-negative and monotonically non-decreasing; each Execute call updates
// them exactly once.
type ExecutionStats struct {
	Total      int64
	Successful int64
	Failed     int64
	Recoveries int64
}

// SuccessRate returns the percentage of successful executions, 0 when the
// pipeline has not executed yet.
func (s ExecutionStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

// StageStats holds statistics for individual stages.
type StageStats struct {
	Name            string
	ExecutionCount  int64
	ErrorCount      int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

// Config holds pipeline configuration options.
type Config struct {
	// Timeout bounds a single execution. Zero means no timeout. Expiry is
	// converted into a stage failure and takes the normal degraded path.
	Timeout time.Duration

	// OnStageStart is called when a stage starts execution.
	OnStageStart func(stageName string, input interface{})

	// OnStageComplete is called when a stage completes.
	OnStageComplete func(result StageResult)

	// OnError is called when a stage fails.
	OnError func(stageName string, err error)

	// OnComplete is called when pipeline execution completes.
	OnComplete func(result Result)
}

// pipeline implements the Pipeline interface.
type pipeline struct {
	id     string
	config Config

	mu         sync.RWMutex
	stages     []Stage
	stats      ExecutionStats
	stageStats map[string]StageStats
}

// New creates a new pipeline with default configuration.
func New(id string) Pipeline {
	return NewWithConfig(id, Config{})
}

// NewWithConfig creates a new pipeline with the specified configuration.
func NewWithConfig(id string, config Config) Pipeline {
	return &pipeline{
		id:         id,
		config:     config,
		stages:     make([]Stage, 0),
		stageStats: make(map[string]StageStats),
	}
}

// NewWithStages creates a new pipeline pre-populated with the given stages.
func NewWithStages(id string, stages ...Stage) Pipeline {
	p := New(id)
	for _, stage := range stages {
		p.AddStage(stage)
	}
	return p
}

// ID returns the pipeline's unique identifier.
func (p *pipeline) ID() string {
	return p.id
}

// Execute runs the pipeline with the given input data.
func (p *pipeline) Execute(ctx context.Context, input interface{}) *Result {
	// Snapshot so concurrent AddStage cannot mutate an in-flight run.
	p.mu.RLock()
	stages := make([]Stage, len(p.stages))
	copy(stages, p.stages)
	p.mu.RUnlock()

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = sfcontext.WithTimeoutOrCancel(ctx, p.config.Timeout)
		defer cancel()
	}

	result := &Result{
		Input:        input,
		StartTime:    time.Now(),
		StageResults: make([]StageResult, 0, len(stages)),
	}

	current := input
	var failure error

	for _, stage := range stages {
		if ctx.Err() != nil {
			failure = cancellationFailure(ctx, stage.Name())
			break
		}

		stageResult := p.executeStage(ctx, stage, current)
		result.StageResults = append(result.StageResults, stageResult)

		if stageResult.Err != nil {
			if p.config.OnError != nil {
				p.config.OnError(stage.Name(), stageResult.Err)
			}
			failure = stageResult.Err
			break
		}

		current = stageResult.Output
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if failure != nil {
		// Fail-fast-and-degrade: return the last-known-good value.
		result.Output = input
		result.Err = failure
		result.Recovered = true
	} else {
		result.Output = current
	}

	p.updateStats(result)

	if p.config.OnComplete != nil {
		p.config.OnComplete(*result)
	}

	return result
}

// Process runs the pipeline and returns only the output value.
func (p *pipeline) Process(ctx context.Context, input interface{}) interface{} {
	return p.Execute(ctx, input).Output
}

// executeStage executes a single stage and records its statistics.
func (p *pipeline) executeStage(ctx context.Context, stage Stage, input interface{}) StageResult {
	if p.config.OnStageStart != nil {
		p.config.OnStageStart(stage.Name(), input)
	}

	start := time.Now()
	output, err := stage.Process(ctx, input)
	duration := time.Since(start)

	if err != nil && !sferrors.IsStageFailure(err) {
		err = sferrors.NewStageError(stage.Name(), err.Error())
	}

	stageResult := StageResult{
		StageName: stage.Name(),
		Input:     input,
		Output:    output,
		Err:       err,
		Duration:  duration,
	}

	p.updateStageStats(stage.Name(), stageResult)

	if p.config.OnStageComplete != nil {
		p.config.OnStageComplete(stageResult)
	}

	return stageResult
}

// cancellationFailure converts context expiry into a stage failure so it
// reuses the fail-fast-and-degrade path.
func cancellationFailure(ctx context.Context, stageName string) error {
	if sfcontext.IsTimedOut(ctx) {
		return sferrors.NewStageError(stageName, "deadline exceeded")
	}
	return sferrors.NewStageError(stageName, "cancelled")
}

// AddStage appends a stage to the pipeline.
func (p *pipeline) AddStage(stage Stage) Pipeline {
	if stage == nil {
		return p
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stages = append(p.stages, stage)

	if _, exists := p.stageStats[stage.Name()]; !exists {
		p.stageStats[stage.Name()] = StageStats{Name: stage.Name()}
	}

	return p
}

// AddStageFunc appends a stage built from a function.
func (p *pipeline) AddStageFunc(name string, fn func(ctx context.Context, input interface{}) (interface{}, error)) Pipeline {
	return p.AddStage(NewStageFunc(name, fn))
}

// Stages returns a copy of the ordered stage list.
func (p *pipeline) Stages() []Stage {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stages := make([]Stage, len(p.stages))
	copy(stages, p.stages)
	return stages
}

// Stats returns a snapshot of the pipeline execution statistics.
func (p *pipeline) Stats() ExecutionStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// StageStats returns per-stage statistics keyed by stage name.
func (p *pipeline) StageStats() map[string]StageStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	statsCopy := make(map[string]StageStats, len(p.stageStats))
	for k, v := range p.stageStats {
		statsCopy[k] = v
	}
	return statsCopy
}

// RecordRecovery counts a degraded recovery performed on the pipeline's behalf.
func (p *pipeline) RecordRecovery() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Recoveries++
}

// updateStats updates pipeline statistics once per execution.
func (p *pipeline) updateStats(result *Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Total++
	if result.Err == nil {
		p.stats.Successful++
	} else {
		p.stats.Failed++
		p.stats.Recoveries++
	}
}

// updateStageStats updates statistics for a specific stage.
func (p *pipeline) updateStageStats(stageName string, result StageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats, exists := p.stageStats[stageName]
	if !exists {
		stats = StageStats{Name: stageName}
	}

	stats.ExecutionCount++
	stats.TotalDuration += result.Duration

	if result.Err != nil {
		stats.ErrorCount++
	}

	if stats.ExecutionCount > 0 {
		stats.AverageDuration = time.Duration(int64(stats.TotalDuration) / stats.ExecutionCount)
	}

	p.stageStats[stageName] = stats
}
