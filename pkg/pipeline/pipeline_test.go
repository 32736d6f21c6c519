package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/stageflow/internal/testutil"
	sferrors "github.com/vnykmshr/stageflow/pkg/common/errors"
)

// TestStage is a helper for testing pipeline stages.
type TestStage struct {
	name     string
	executed *int32
	err      error
	output   interface{}
}

func (ts *TestStage) Process(_ context.Context, input interface{}) (interface{}, error) {
	atomic.AddInt32(ts.executed, 1)

	if ts.err != nil {
		return input, ts.err
	}

	if ts.output != nil {
		return ts.output, nil
	}

	// Default behavior: append stage name to input
	if str, ok := input.(string); ok {
		return str + "->" + ts.name, nil
	}

	return input, nil
}

func (ts *TestStage) Name() string {
	return ts.name
}

func TestNew(t *testing.T) {
	p := New("test")
	if p == nil {
		t.Fatal("pipeline should not be nil")
	}

	testutil.AssertEqual(t, p.ID(), "test")
	testutil.AssertEqual(t, len(p.Stages()), 0)
}

func TestNewWithStages(t *testing.T) {
	p := NewWithStages("test", DefaultStages()...)

	stages := p.Stages()
	testutil.AssertEqual(t, len(stages), 3)
	testutil.AssertEqual(t, stages[0].Name(), "input")
	testutil.AssertEqual(t, stages[1].Name(), "transform")
	testutil.AssertEqual(t, stages[2].Name(), "output")
}

func TestAddStage(t *testing.T) {
	p := New("test")
	var executed int32
	stage := &TestStage{name: "first", executed: &executed}

	result := p.AddStage(stage)
	testutil.AssertEqual(t, result, p) // Should return self for chaining

	stages := p.Stages()
	testutil.AssertEqual(t, len(stages), 1)
	testutil.AssertEqual(t, stages[0].Name(), "first")
}

func TestAddStage_Nil(t *testing.T) {
	p := New("test")
	p.AddStage(nil)

	testutil.AssertEqual(t, len(p.Stages()), 0)
}

func TestAddStage_OrderPreserved(t *testing.T) {
	p := New("test")
	var executed int32

	p.AddStage(&TestStage{name: "a", executed: &executed})
	p.AddStage(&TestStage{name: "b", executed: &executed})

	result := p.Execute(context.Background(), "start")
	testutil.AssertEqual(t, result.Output.(string), "start->a->b")

	// A stage added later runs after all existing stages.
	p.AddStage(&TestStage{name: "c", executed: &executed})
	result = p.Execute(context.Background(), "start")
	testutil.AssertEqual(t, result.Output.(string), "start->a->b->c")
}

func TestExecute_Success(t *testing.T) {
	p := New("test")
	var executed int32

	p.AddStage(&TestStage{name: "one", executed: &executed})
	p.AddStage(&TestStage{name: "two", executed: &executed})

	result := p.Execute(context.Background(), "in")

	testutil.AssertNoError(t, result.Err)
	testutil.AssertEqual(t, result.Output.(string), "in->one->two")
	testutil.AssertEqual(t, result.Input.(string), "in")
	testutil.AssertEqual(t, result.Recovered, false)
	testutil.AssertEqual(t, len(result.StageResults), 2)
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(2))

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Total, int64(1))
	testutil.AssertEqual(t, stats.Successful, int64(1))
	testutil.AssertEqual(t, stats.Failed, int64(0))
	testutil.AssertEqual(t, stats.Recoveries, int64(0))
}

func TestExecute_EmptyPipeline(t *testing.T) {
	p := New("test")

	result := p.Execute(context.Background(), "unchanged")

	testutil.AssertNoError(t, result.Err)
	testutil.AssertEqual(t, result.Output.(string), "unchanged")

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Total, int64(1))
	testutil.AssertEqual(t, stats.Successful, int64(1))
}

func TestExecute_FailFastAndDegrade(t *testing.T) {
	p := New("test")
	var executed, skipped int32

	p.AddStage(&TestStage{name: "ok", executed: &executed})
	p.AddStage(&TestStage{name: "boom", executed: &executed, err: errors.New("exploded")})
	p.AddStage(&TestStage{name: "after", executed: &skipped})

	result := p.Execute(context.Background(), "original")

	// Degraded fallback: the pre-execution input, not a partial transform.
	testutil.AssertEqual(t, result.Output.(string), "original")
	testutil.AssertEqual(t, result.Recovered, true)
	testutil.AssertError(t, result.Err)
	testutil.AssertTrue(t, sferrors.IsStageFailure(result.Err), "absorbed error should be a stage failure")

	// Fail-fast: the stage after the failure never ran.
	testutil.AssertEqual(t, atomic.LoadInt32(&skipped), int32(0))
	testutil.AssertEqual(t, len(result.StageResults), 2)

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Total, int64(1))
	testutil.AssertEqual(t, stats.Failed, int64(1))
	testutil.AssertEqual(t, stats.Recoveries, int64(1))
	testutil.AssertEqual(t, stats.Successful, int64(0))
}

func TestExecute_NilInputDegrades(t *testing.T) {
	p := NewWithStages("test", DefaultStages()...)

	result := p.Execute(context.Background(), nil)

	if result.Output != nil {
		t.Fatalf("nil input should be returned unchanged, got %v", result.Output)
	}
	testutil.AssertEqual(t, result.Recovered, true)

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Failed, int64(1))
	testutil.AssertEqual(t, stats.Recoveries, int64(1))
}

func TestExecute_ValidatesRecord(t *testing.T) {
	p := NewWithStages("test", DefaultStages()...)

	input := map[string]interface{}{"sensor": "temp", "value": 23.5}
	result := p.Execute(context.Background(), input)

	record, ok := result.Output.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a record, got %T", result.Output)
	}

	testutil.AssertEqual(t, record["validated"].(bool), true)
	testutil.AssertEqual(t, record["sensor"].(string), "temp")
	testutil.AssertEqual(t, record["value"].(float64), 23.5)

	// The caller's record is untouched.
	if _, exists := input["validated"]; exists {
		t.Error("pipeline should not mutate the original input record")
	}
}

func TestExecute_ContextCancelled(t *testing.T) {
	p := New("test")
	var executed int32
	p.AddStage(&TestStage{name: "never", executed: &executed})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.Execute(ctx, "data")

	testutil.AssertEqual(t, result.Output.(string), "data")
	testutil.AssertEqual(t, result.Recovered, true)
	testutil.AssertTrue(t, sferrors.IsStageFailure(result.Err), "cancellation should surface as a stage failure")
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(0))

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Failed, int64(1))
}

func TestExecute_Timeout(t *testing.T) {
	p := NewWithConfig("test", Config{Timeout: 10 * time.Millisecond})

	p.AddStageFunc("slow", func(ctx context.Context, input interface{}) (interface{}, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return input, nil
		case <-ctx.Done():
			return input, ctx.Err()
		}
	})
	var after int32
	p.AddStage(&TestStage{name: "after", executed: &after})

	result := p.Execute(context.Background(), "data")

	testutil.AssertEqual(t, result.Output.(string), "data")
	testutil.AssertEqual(t, result.Recovered, true)
	testutil.AssertEqual(t, atomic.LoadInt32(&after), int32(0))
}

func TestProcess_ReturnsOutput(t *testing.T) {
	p := New("test")
	var executed int32
	p.AddStage(&TestStage{name: "one", executed: &executed})

	out := p.Process(context.Background(), "in")
	testutil.AssertEqual(t, out.(string), "in->one")
}

func TestStats_SuccessRate(t *testing.T) {
	p := New("test")

	// No executions yet.
	testutil.AssertEqual(t, p.Stats().SuccessRate(), float64(0))

	var executed int32
	p.AddStage(&TestStage{name: "flaky", executed: &executed})

	p.Execute(context.Background(), "ok")

	fail := New("fail")
	fail.AddStage(&TestStage{name: "boom", executed: &executed, err: errors.New("nope")})
	fail.Execute(context.Background(), "x")
	fail.Execute(context.Background(), "x")

	testutil.AssertEqual(t, p.Stats().SuccessRate(), float64(100))
	testutil.AssertEqual(t, fail.Stats().SuccessRate(), float64(0))

	// Mixed outcomes compute the exact ratio.
	mixed := New("mixed")
	calls := 0
	mixed.AddStageFunc("alternate", func(_ context.Context, input interface{}) (interface{}, error) {
		calls++
		if calls%2 == 0 {
			return nil, fmt.Errorf("call %d failed", calls)
		}
		return input, nil
	})

	for i := 0; i < 4; i++ {
		mixed.Execute(context.Background(), "x")
	}

	stats := mixed.Stats()
	testutil.AssertEqual(t, stats.Total, int64(4))
	testutil.AssertEqual(t, stats.Successful, int64(2))
	testutil.AssertEqual(t, stats.SuccessRate(), float64(50))
}

func TestRecordRecovery(t *testing.T) {
	p := New("test")

	p.RecordRecovery()
	p.RecordRecovery()

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Recoveries, int64(2))
	testutil.AssertEqual(t, stats.Total, int64(0))
}

func TestStageStats(t *testing.T) {
	p := New("test")
	var executed int32
	p.AddStage(&TestStage{name: "ok", executed: &executed})
	p.AddStage(&TestStage{name: "boom", executed: &executed, err: errors.New("nope")})

	p.Execute(context.Background(), "x")
	p.Execute(context.Background(), "x")

	stats := p.StageStats()
	testutil.AssertEqual(t, stats["ok"].ExecutionCount, int64(2))
	testutil.AssertEqual(t, stats["ok"].ErrorCount, int64(0))
	testutil.AssertEqual(t, stats["boom"].ExecutionCount, int64(2))
	testutil.AssertEqual(t, stats["boom"].ErrorCount, int64(2))
}

func TestCallbacks(t *testing.T) {
	var started, completed, failed, finished int32

	config := Config{
		OnStageStart: func(string, interface{}) {
			atomic.AddInt32(&started, 1)
		},
		OnStageComplete: func(StageResult) {
			atomic.AddInt32(&completed, 1)
		},
		OnError: func(string, error) {
			atomic.AddInt32(&failed, 1)
		},
		OnComplete: func(Result) {
			atomic.AddInt32(&finished, 1)
		},
	}

	p := NewWithConfig("test", config)
	var executed int32
	p.AddStage(&TestStage{name: "ok", executed: &executed})
	p.AddStage(&TestStage{name: "boom", executed: &executed, err: errors.New("nope")})

	p.Execute(context.Background(), "x")

	testutil.AssertEqual(t, atomic.LoadInt32(&started), int32(2))
	testutil.AssertEqual(t, atomic.LoadInt32(&completed), int32(2))
	testutil.AssertEqual(t, atomic.LoadInt32(&failed), int32(1))
	testutil.AssertEqual(t, atomic.LoadInt32(&finished), int32(1))
}

func TestExecute_PlainErrorBecomesStageFailure(t *testing.T) {
	p := New("test")
	p.AddStageFunc("plain", func(_ context.Context, input interface{}) (interface{}, error) {
		return input, errors.New("not a stage error")
	})

	result := p.Execute(context.Background(), "x")

	testutil.AssertTrue(t, sferrors.IsStageFailure(result.Err), "plain errors should be normalized to stage failures")

	var stageErr *sferrors.StageError
	testutil.AssertTrue(t, errors.As(result.Err, &stageErr), "error should be a *StageError")
	testutil.AssertEqual(t, stageErr.Stage, "plain")
}
