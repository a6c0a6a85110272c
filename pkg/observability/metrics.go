package observability

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tendril"

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	phaseDuration  *prometheus.HistogramVec
	phaseErrors    *prometheus.CounterVec
	promptDuration *prometheus.HistogramVec
	promptTotal    *prometheus.CounterVec
	connects       *prometheus.CounterVec
	runs           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of orchestration phases.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"phase"},
		),
		phaseErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_errors_total",
				Help:      "Orchestration phases that ended with an error.",
			},
			[]string{"phase"},
		),
		promptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prompt_duration_seconds",
				Help:      "Round-trip time of prompt exchanges with the model server.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"transport"},
		),
		promptTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompts_total",
				Help:      "Prompt exchanges by transport and outcome.",
			},
			[]string{"transport", "outcome"},
		),
		connects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connects_total",
				Help:      "Connection attempts by transport and resulting state.",
			},
			[]string{"transport", "state"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished orchestration runs by outcome.",
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.phaseDuration, m.phaseErrors, m.promptDuration, m.promptTotal, m.connects, m.runs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnd: func(_ context.Context, e *domain.PhaseEvent) {
			m.phaseDuration.WithLabelValues(string(e.Phase)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.phaseErrors.WithLabelValues(string(e.Phase)).Inc()
			}
		},
		OnPrompt: func(_ context.Context, e *domain.PromptEvent) {
			m.promptDuration.WithLabelValues(e.Transport).Observe(e.Duration.Seconds())
			m.promptTotal.WithLabelValues(e.Transport, outcome(e.Err)).Inc()
		},
		OnConnect: func(_ context.Context, e *domain.ConnectEvent) {
			m.connects.WithLabelValues(e.Transport, e.State.String()).Inc()
		},
	}
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(res domain.ProcessResult) {
	if res.Success {
		m.runs.WithLabelValues("success").Inc()
		return
	}
	m.runs.WithLabelValues("error").Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
