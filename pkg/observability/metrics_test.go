package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnConnect(ctx, &domain.ConnectEvent{Transport: "socket", State: domain.StateConnected})
	hooks.OnPrompt(ctx, &domain.PromptEvent{Transport: "socket", Duration: time.Second})
	hooks.OnPrompt(ctx, &domain.PromptEvent{Transport: "socket", Err: domain.ErrTimeout})
	hooks.OnPhaseEnd(ctx, &domain.PhaseEvent{Phase: domain.PhasePlan, Duration: time.Second, Err: errors.New("x")})
	m.ObserveRun(domain.ProcessResult{Success: true})
	m.ObserveRun(domain.ProcessResult{Error: "boom"})

	count, err := testutil.GatherAndCount(reg, "tendril_prompts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(`
# HELP tendril_connects_total Connection attempts by transport and resulting state.
# TYPE tendril_connects_total counter
tendril_connects_total{state="connected",transport="socket"} 1
`), "tendril_connects_total"))
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(`
# HELP tendril_runs_total Finished orchestration runs by outcome.
# TYPE tendril_runs_total counter
tendril_runs_total{outcome="error"} 1
tendril_runs_total{outcome="success"} 1
`), "tendril_runs_total"))
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(`
# HELP tendril_phase_errors_total Orchestration phases that ended with an error.
# TYPE tendril_phase_errors_total counter
tendril_phase_errors_total{phase="plan"} 1
`), "tendril_phase_errors_total"))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)

	hooks.OnPhaseStart(context.Background(), &domain.PhaseEvent{Phase: domain.PhaseAnalyze})
	hooks.OnConnect(context.Background(), &domain.ConnectEvent{Transport: "http", State: domain.StateConnected})

	out := buf.String()
	assert.Contains(t, out, "phase_start")
	assert.Contains(t, out, "phase=analyze")
	assert.Contains(t, out, "state=connected")
}
