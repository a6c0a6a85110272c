package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
)

// exitCommands end the loop when entered at the prompt.
var exitCommands = map[string]bool{"/exit": true, "/quit": true, "exit": true, "quit": true}

// Runner reads requests through its Handler and runs them one at a time.
type Runner struct {
	// Handler is the IO strategy. If nil, a TextHandler on stdio is used.
	Handler IOHandler

	// Logger is used for internal debug logging. If nil, a no-op logger is used.
	Logger *slog.Logger

	// Banner is shown once before the first prompt.
	Banner string
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run loops until the input ends, an exit command is entered, ctx is canceled or
// the user interrupts at the prompt. Failed requests are reported and the loop goes on.
func (r *Runner) Run(ctx context.Context, proc RequestProcessor, cfg domain.ServerConfig) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if r.Banner != "" {
		if err := r.Handler.SystemOutput(ctx, r.Banner); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		text, err := r.Handler.Input(signals.Context())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if exitCommands[strings.ToLower(text)] {
			return nil
		}

		if err := r.Handler.Signal(ctx, SignalThinking, map[string]any{"request": domain.Truncate(text, 80)}); err != nil {
			r.Logger.Debug("signal failed", "err", err)
		}

		r.Logger.Debug("running request", "size", len(text))
		result := proc.ProcessRequest(signals.Context(), text, cfg)

		if signals.Interrupted() {
			signals.Reset()
			_ = r.Handler.Signal(ctx, SignalCanceled, nil)
			_ = r.Handler.SystemOutput(ctx, "Request canceled.")
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		if err := r.Handler.Output(ctx, result); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}
