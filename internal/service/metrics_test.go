package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

func TestMetricsObserver_RecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsObserver(reg)
	e := mustEngine(t, DefaultEngineConfig(), WithObservers(m))

	input := twoAgentInput()
	input.RequireClinicalValidation = true
	if _, err := e.Synthesize(context.Background(), input); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	_, _ = e.Synthesize(context.Background(), &core.ConsensusInput{Query: firstLineQuery})

	if got := testutil.ToFloat64(m.runs.WithLabelValues("success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues(core.CodeNoValidResponses)); got != 1 {
		t.Errorf("failures{%s} = %v, want 1", core.CodeNoValidResponses, got)
	}
	if got := testutil.ToFloat64(m.clinical.WithLabelValues("true")); got != 1 {
		t.Errorf("clinical{true} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.inflightRuns); got != 0 {
		t.Errorf("inflight = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.confidence); got != 1 {
		t.Errorf("confidence series = %d, want 1", got)
	}
}

func TestMetricsObserver_Initialized(t *testing.T) {
	m := NewMetricsObserver(prometheus.NewRegistry())
	m.Notify(context.Background(), core.LifecycleEvent{Type: core.EventInitialized, Duration: time.Millisecond})
	if got := testutil.ToFloat64(m.initialized); got != 1 {
		t.Errorf("initialized = %v, want 1", got)
	}
}

func TestErrorCode(t *testing.T) {
	if got := errorCode(core.ErrNotReady()); got != core.CodeNotReady {
		t.Errorf("errorCode() = %q", got)
	}
	if got := errorCode(context.Canceled); got != "unknown" {
		t.Errorf("errorCode() = %q, want unknown", got)
	}
}
