package transport

import (
	"fmt"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// reply is delivered exactly once to the caller waiting on a request ID.
type reply struct {
	msg inboundMessage
	err error
}

// correlator matches completion_result messages to in-flight requests.
// Every registered ID receives exactly one reply: a matching message, or the error
// passed to failAll when the connection goes away. Callers that give up (timeout,
// cancellation) remove their entry with cancel.
type correlator struct {
	mu      sync.Mutex
	pending map[string]chan reply
	closed  error
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[string]chan reply)}
}

// register creates the entry for id. It fails if the connection is already gone or
// the ID is in use.
func (c *correlator) register(id string) (<-chan reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed != nil {
		return nil, c.closed
	}
	if _, exists := c.pending[id]; exists {
		return nil, fmt.Errorf("%w: duplicate request id %s", domain.ErrProtocol, id)
	}
	ch := make(chan reply, 1)
	c.pending[id] = ch
	return ch, nil
}

// resolve delivers msg to the request it answers. Messages with another type or an
// unknown request ID are ignored and resolve returns false.
func (c *correlator) resolve(msg inboundMessage) bool {
	if msg.Type != msgCompletionResult || msg.RequestID == "" {
		return false
	}

	c.mu.Lock()
	ch, ok := c.pending[msg.RequestID]
	if ok {
		delete(c.pending, msg.RequestID)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	// Buffered and removed under the lock: this send never blocks and never happens twice.
	ch <- reply{msg: msg}
	return true
}

// cancel drops the entry for id without delivering anything.
func (c *correlator) cancel(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// failAll fails every pending request with err and rejects later registrations.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed == nil {
		c.closed = err
	}
	for id, ch := range c.pending {
		ch <- reply{err: err}
		delete(c.pending, id)
	}
}

// size returns the number of in-flight requests.
func (c *correlator) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
