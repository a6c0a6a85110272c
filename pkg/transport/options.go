package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Defaults applied by New.
const (
	DefaultPromptTimeout    = 120 * time.Second
	DefaultAuthTimeout      = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets the client used by the request/response transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDialer sets the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithPromptTimeout bounds how long SendPrompt waits for a completion.
func WithPromptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.promptTimeout = d
		}
	}
}

// WithAuthTimeout bounds how long Connect waits for the auth_result acknowledgment.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.authTimeout = d
		}
	}
}

// WithIDGenerator replaces the request ID source. IDs must be unique per connection.
func WithIDGenerator(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.nextID = next
		}
	}
}

// WithHooks registers lifecycle callbacks for connects and prompts.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

func newRequestID() string {
	return "req_" + uuid.NewString()
}
