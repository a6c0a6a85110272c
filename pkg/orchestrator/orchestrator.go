package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Orchestrator runs the analyze, plan, execute, synthesize pipeline against a transport.
// One instance runs at most one request at a time.
type Orchestrator struct {
	transport ports.PromptTransport
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	now       func() time.Time

	running sync.Mutex
}

// New creates an Orchestrator that talks to the model through transport.
func New(transport ports.PromptTransport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport: transport,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs request to completion. On failure the result carries only the error
// message and the same error is returned.
func (o *Orchestrator) Process(ctx context.Context, request string, cfg domain.ServerConfig) (domain.ProcessResult, error) {
	if !o.running.TryLock() {
		return domain.FailedResult(domain.ErrRunInProgress), domain.ErrRunInProgress
	}
	defer o.running.Unlock()

	res, err := o.process(ctx, request, cfg)
	if err != nil {
		o.logger.Error("request processing failed", "err", err)
		return domain.FailedResult(err), err
	}
	return res, nil
}

func (o *Orchestrator) process(ctx context.Context, request string, cfg domain.ServerConfig) (domain.ProcessResult, error) {
	connected, err := o.transport.EnsureConnection(ctx, cfg)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	if !connected {
		return domain.ProcessResult{}, domain.ErrNotConnected
	}

	var trace domain.ExecutionTrace

	analysis, err := o.analyze(ctx, request)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	trace.Append("Request Analysis", "Understanding request: "+analysis.Summary)

	plan, err := o.plan(ctx, request)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	trace.Append("Planning", fmt.Sprintf("Breaking down task into %d steps", len(plan)))

	results := make([]string, 0, len(plan))
	for i, step := range plan {
		trace.Append("Executing: "+step.Title, "Working on: "+step.Description)

		result, err := o.execute(ctx, i, request, step, results)
		if err != nil {
			return domain.ProcessResult{}, err
		}
		results = append(results, result)

		trace.Append("Step Complete", fmt.Sprintf("Completed: %s - %s", step.Title, summarize(result)))
	}

	final, err := o.synthesize(ctx, request, results)
	if err != nil {
		return domain.ProcessResult{}, err
	}

	return domain.ProcessResult{
		Success:       true,
		Steps:         trace.Entries(),
		FinalResponse: final,
	}, nil
}

func (o *Orchestrator) analyze(ctx context.Context, request string) (domain.Analysis, error) {
	var analysis domain.Analysis
	err := o.phase(ctx, domain.PhaseAnalyze, 0, func() error {
		raw, err := o.transport.SendPrompt(ctx, analyzePrompt(request))
		if err != nil {
			return err
		}
		analysis, err = parseAnalysis(raw)
		if err != nil {
			o.logger.Debug("analysis reply is not valid JSON, using fallback", "err", err)
			analysis = domain.FallbackAnalysis(raw)
		}
		return nil
	})
	return analysis, err
}

func (o *Orchestrator) plan(ctx context.Context, request string) (domain.StepPlan, error) {
	var plan domain.StepPlan
	err := o.phase(ctx, domain.PhasePlan, 0, func() error {
		raw, err := o.transport.SendPrompt(ctx, planPrompt(request))
		if err != nil {
			return err
		}
		plan, err = parsePlan(raw)
		if err != nil {
			o.logger.Debug("plan reply is not usable, using single-step plan", "err", err)
			plan = domain.FallbackPlan()
		}
		return nil
	})
	return plan, err
}

func (o *Orchestrator) execute(ctx context.Context, index int, request string, step domain.TaskStep, previous []string) (string, error) {
	var result string
	err := o.phase(ctx, domain.PhaseExecute, index+1, func() error {
		var err error
		result, err = o.transport.SendPrompt(ctx, executePrompt(request, step.Title, step.Description, previous))
		return err
	})
	return result, err
}

func (o *Orchestrator) synthesize(ctx context.Context, request string, results []string) (string, error) {
	var final string
	err := o.phase(ctx, domain.PhaseSynthesize, 0, func() error {
		var err error
		final, err = o.transport.SendPrompt(ctx, synthesizePrompt(request, results))
		return err
	})
	return final, err
}

// phase wraps fn with the start and end hooks.
func (o *Orchestrator) phase(ctx context.Context, phase domain.Phase, step int, fn func() error) error {
	start := o.now()
	if o.hooks.OnPhaseStart != nil {
		o.hooks.OnPhaseStart(ctx, &domain.PhaseEvent{Timestamp: start, Phase: phase, StepIndex: step})
	}
	o.logger.Debug("phase started", "phase", phase, "step", step)

	err := fn()

	end := o.now()
	if o.hooks.OnPhaseEnd != nil {
		o.hooks.OnPhaseEnd(ctx, &domain.PhaseEvent{
			Timestamp: end,
			Phase:     phase,
			StepIndex: step,
			Duration:  end.Sub(start),
			Err:       err,
		})
	}
	return err
}

// summarize shortens a step result for the trace.
func summarize(result string) string {
	short := domain.Truncate(result, domain.StepSummaryLimit)
	if short == result {
		return result
	}
	return short + "..."
}
