package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseStart: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.DebugContext(ctx, "phase_start", "phase", e.Phase, "step", e.StepIndex)
		},
		OnPhaseEnd: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.DebugContext(ctx, "phase_end",
				"phase", e.Phase,
				"step", e.StepIndex,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnPrompt: func(ctx context.Context, e *domain.PromptEvent) {
			logger.DebugContext(ctx, "prompt", "transport", e.Transport, "duration", e.Duration, "err", e.Err)
		},
		OnConnect: func(ctx context.Context, e *domain.ConnectEvent) {
			logger.DebugContext(ctx, "connect", "transport", e.Transport, "state", e.State, "err", e.Err)
		},
	}
}
