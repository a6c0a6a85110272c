package domain

import (
	"context"
	"time"
)

// Phase names the stage of an orchestration run.
type Phase string

const (
	PhaseAnalyze    Phase = "analyze"
	PhasePlan       Phase = "plan"
	PhaseExecute    Phase = "execute"
	PhaseSynthesize Phase = "synthesize"
)

// PhaseEvent is emitted around every orchestration phase.
type PhaseEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Phase     Phase         `json:"phase"`
	StepIndex int           `json:"step_index,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// PromptEvent is emitted after every prompt exchange with the model.
type PromptEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Transport string        `json:"transport"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// ConnectEvent is emitted after every connection attempt.
type ConnectEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Transport string          `json:"transport"`
	State     ConnectionState `json:"state"`
	Err       error           `json:"-"`
}

// LifecycleHooks defines callbacks for observability. Hooks never affect control flow.
type LifecycleHooks struct {
	OnPhaseStart func(context.Context, *PhaseEvent)
	OnPhaseEnd   func(context.Context, *PhaseEvent)
	OnPrompt     func(context.Context, *PromptEvent)
	OnConnect    func(context.Context, *ConnectEvent)
}

// Merge combines two hook sets, calling h before other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseStart: chain(h.OnPhaseStart, other.OnPhaseStart),
		OnPhaseEnd:   chain(h.OnPhaseEnd, other.OnPhaseEnd),
		OnPrompt:     chain(h.OnPrompt, other.OnPrompt),
		OnConnect:    chain(h.OnConnect, other.OnConnect),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
