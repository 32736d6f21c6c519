package pipeline

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/stageflow/internal/testutil"
	"github.com/vnykmshr/stageflow/pkg/metrics"
)

func TestNewWithMetrics(t *testing.T) {
	p := NewWithMetrics("instrumented")

	mp, ok := p.(*MetricsPipeline)
	if !ok {
		t.Fatalf("expected *MetricsPipeline, got %T", p)
	}

	testutil.AssertEqual(t, mp.ID(), "instrumented")
	testutil.AssertTrue(t, mp.MetricsEnabled(), "metrics should be enabled")
}

func TestNewWithConfigAndMetrics_Disabled(t *testing.T) {
	p := NewWithConfigAndMetrics("plain", Config{}, metrics.Config{Enabled: false})

	if _, ok := p.(*MetricsPipeline); ok {
		t.Fatal("disabled metrics should return the base pipeline")
	}
}

func TestMetricsPipeline_Delegation(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := NewWithConfigAndMetrics("readings", Config{}, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})

	for _, stage := range DefaultStages() {
		p.AddStage(stage)
	}
	testutil.AssertEqual(t, len(p.Stages()), 3)

	result := p.Execute(context.Background(), map[string]interface{}{"value": 1})
	testutil.AssertNoError(t, result.Err)

	p.Execute(context.Background(), nil)

	stats := p.Stats()
	testutil.AssertEqual(t, stats.Total, int64(2))
	testutil.AssertEqual(t, stats.Successful, int64(1))
	testutil.AssertEqual(t, stats.Failed, int64(1))

	stageStats := p.StageStats()
	testutil.AssertEqual(t, stageStats["input"].ExecutionCount, int64(2))

	p.RecordRecovery()
	testutil.AssertEqual(t, p.Stats().Recoveries, int64(2))
}

func TestMetricsPipeline_EnableDisable(t *testing.T) {
	p := NewWithMetrics("toggle").(*MetricsPipeline)

	p.DisableMetrics()
	testutil.AssertEqual(t, p.MetricsEnabled(), false)

	// Execution still works with metrics off.
	out := p.Process(context.Background(), "data")
	testutil.AssertEqual(t, out.(string), "data")

	err := p.EnableMetrics(metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, p.MetricsEnabled(), "metrics should be re-enabled")
}
