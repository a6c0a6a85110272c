package runner

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// Signal names emitted by the Runner.
const (
	SignalThinking = "thinking"
	SignalCanceled = "canceled"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Input reads the next request. io.EOF ends the loop.
	Input(ctx context.Context) (string, error)

	// Output presents the outcome of one request.
	Output(ctx context.Context, result domain.ProcessResult) error

	// Signal notifies the handler of an event (e.g. "thinking") for visual feedback.
	Signal(ctx context.Context, name string, args map[string]any) error

	// SystemOutput presents a meta-message (status, errors) distinct from results.
	SystemOutput(ctx context.Context, msg string) error
}

// RequestProcessor runs one request against a server configuration.
// *tendril.Agent implements it.
type RequestProcessor interface {
	ProcessRequest(ctx context.Context, request string, cfg domain.ServerConfig) domain.ProcessResult
}

// ContentRenderer transforms content before it is printed (e.g. markdown to ANSI).
type ContentRenderer func(string) (string, error)

// StepFormatter renders one trace entry for display.
type StepFormatter func(domain.TraceEntry) string
