package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// scriptedTransport replies to prompts in order and records what it was sent.
type scriptedTransport struct {
	mu       sync.Mutex
	replies  []string
	failAt   int // 1-based prompt number that fails; 0 never fails
	failWith error
	connErr  error
	prompts  []string
	ensures  int

	// block, when set, holds every prompt until closed.
	block chan struct{}
}

func (s *scriptedTransport) EnsureConnection(_ context.Context, _ domain.ServerConfig) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensures++
	if s.connErr != nil {
		return false, s.connErr
	}
	return true, nil
}

func (s *scriptedTransport) SendPrompt(ctx context.Context, prompt string) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	n := len(s.prompts)
	if s.failAt == n {
		return "", s.failWith
	}
	if n > len(s.replies) {
		return "", errors.New("unexpected prompt")
	}
	return s.replies[n-1], nil
}

func (s *scriptedTransport) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *scriptedTransport) ensuresCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensures
}
