package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// PromptTransport is the contract between the orchestrator and a transport client.
// Implementations own exactly one connection and decide per call which wire protocol to use.
type PromptTransport interface {
	// EnsureConnection connects unless already connected with an equal configuration.
	// It returns whether the client is connected afterwards.
	EnsureConnection(ctx context.Context, cfg domain.ServerConfig) (bool, error)

	// SendPrompt exchanges one prompt for one completion text.
	SendPrompt(ctx context.Context, prompt string) (string, error)
}
