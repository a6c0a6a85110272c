package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/runner"
)

// newHandler picks the IO strategy for the session: JSON lines for hosts, styled text for people.
func newHandler(opts Options) runner.IOHandler {
	in, out := opts.stdin(), opts.stdout()
	if opts.JSON {
		return runner.NewJSONHandler(in, out)
	}

	width, tty := terminalWidth(out)
	handlerOpts := []runner.TextHandlerOption{
		runner.WithTextHandlerStepFormatter(tui.NewStepFormatter(out)),
	}
	if tty {
		handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(width)))
	}
	return runner.NewTextHandler(in, out, handlerOpts...)
}

// RunConnect checks that the configured endpoint accepts a connection.
func RunConnect(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	if err := requireEndpoint(cfg); err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg, createLogger(opts.Debug), opts.Debug, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	res := app.Agent.Connect(ctx, cfg.Server)
	out := opts.stdout()
	if opts.JSON {
		if err := json.NewEncoder(out).Encode(res); err != nil {
			return err
		}
	} else if res.Success {
		printSystemMessage(out, "Connected to %s (%s).", cfg.Server.URL, app.Agent.State())
	} else {
		printSystemMessage(out, "Connection to %s failed: %s", cfg.Server.URL, res.Error)
	}
	if !res.Success {
		return ErrRequestFailed
	}
	return nil
}

// RunAsk processes a single request and prints the result.
func RunAsk(ctx context.Context, opts Options, request string) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	if err := requireEndpoint(cfg); err != nil {
		return err
	}

	clean, err := runner.SanitizeInput(request)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	logger := createLogger(opts.Debug)
	app, err := NewApp(ctx, cfg, logger, opts.Debug, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	handler := newHandler(opts)
	if err := handler.Signal(ctx, runner.SignalThinking, nil); err != nil {
		logger.Debug("signal failed", "err", err)
	}

	res := app.Agent.ProcessRequest(ctx, clean, cfg.Server)
	if err := handler.Output(ctx, res); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	if !res.Success {
		return ErrRequestFailed
	}
	return nil
}

// RunChat starts the interactive loop against the configured endpoint.
func RunChat(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	if err := requireEndpoint(cfg); err != nil {
		return err
	}

	logger := createLogger(opts.Debug)
	app, err := NewApp(ctx, cfg, logger, opts.Debug, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	if res := app.Agent.Connect(sigCtx, cfg.Server); !res.Success {
		return fmt.Errorf("connect %s: %s", cfg.Server.URL, res.Error)
	}

	out := opts.stdout()
	if _, tty := terminalWidth(out); tty && !opts.JSON {
		tui.PrintBanner(out)
	}

	r := runner.New(
		runner.WithLogger(logger),
		runner.WithInputHandler(newHandler(opts)),
		runner.WithBanner(fmt.Sprintf("Connected to %s. Type /exit to quit.", cfg.Server.URL)),
	)

	err = r.Run(sigCtx, app.Agent, cfg.Server)
	if sigCtx.Err() != nil && err == nil {
		err = sigCtx.Err()
	}
	return handleExecutionError(err)
}
