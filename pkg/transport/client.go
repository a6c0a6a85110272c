package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/gorilla/websocket"
)

// Transport names reported in lifecycle events.
const (
	TransportSocket = "socket"
	TransportHTTP   = "http"
)

var _ ports.PromptTransport = (*Client)(nil)

// Client owns one logical connection to a model server.
//
// Connect, EnsureConnection and Close are serialized. SendPrompt may be called
// concurrently; socket replies are routed to their callers by request ID.
type Client struct {
	logger        *slog.Logger
	httpClient    *http.Client
	dialer        *websocket.Dialer
	promptTimeout time.Duration
	authTimeout   time.Duration
	nextID        func() string
	hooks         domain.LifecycleHooks

	connectMu sync.Mutex

	mu     sync.RWMutex
	state  domain.ConnectionState
	config domain.ServerConfig
	sock   *socket
}

// New creates a disconnected Client.
func New(opts ...Option) *Client {
	c := &Client{
		logger:        logging.NewNop(),
		httpClient:    &http.Client{},
		dialer:        &websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: DefaultHandshakeTimeout},
		promptTimeout: DefaultPromptTimeout,
		authTimeout:   DefaultAuthTimeout,
		nextID:        newRequestID,
		state:         domain.StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Client) State() domain.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Config returns the configuration of the last connection attempt.
func (c *Client) Config() domain.ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Connect replaces any existing connection with a new one to cfg.
// Failures are reported both in the result and as a classified error.
func (c *Client) Connect(ctx context.Context, cfg domain.ServerConfig) (domain.ConnectionResult, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	return c.connectLocked(ctx, cfg)
}

// EnsureConnection connects only when the client is not already connected to cfg.
// It returns true when a usable connection exists afterwards.
func (c *Client) EnsureConnection(ctx context.Context, cfg domain.ServerConfig) (bool, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.RLock()
	reuse := c.state == domain.StateConnected && c.config.Equal(cfg)
	c.mu.RUnlock()
	if reuse {
		return true, nil
	}

	res, err := c.connectLocked(ctx, cfg)
	return res.Success, err
}

func (c *Client) connectLocked(ctx context.Context, cfg domain.ServerConfig) (domain.ConnectionResult, error) {
	c.teardown()

	c.mu.Lock()
	c.state = domain.StateConnecting
	c.config = cfg
	c.mu.Unlock()

	transport := TransportHTTP
	if cfg.IsSocket() {
		transport = TransportSocket
	}
	c.logger.Info("connecting to MCP server", "url", cfg.URL, "transport", transport)

	var err error
	if cfg.IsSocket() {
		err = c.connectSocket(ctx, cfg)
	} else {
		err = c.probe(ctx, cfg)
	}

	c.mu.Lock()
	switch {
	case err == nil && c.state == domain.StateConnecting:
		c.state = domain.StateConnected
	case errors.Is(err, domain.ErrAuthFailed):
		c.state = domain.StateAuthFailed
	case err != nil:
		c.state = domain.StateDisconnected
	}
	state := c.state
	c.mu.Unlock()

	// The socket may have died between the handshake and the state update.
	if err == nil && state != domain.StateConnected {
		err = domain.ErrConnection
	}

	if c.hooks.OnConnect != nil {
		c.hooks.OnConnect(ctx, &domain.ConnectEvent{
			Timestamp: time.Now(),
			Transport: transport,
			State:     state,
			Err:       err,
		})
	}

	if err != nil {
		c.logger.Warn("connection failed", "url", cfg.URL, "state", state, "err", err)
		return domain.ConnectionResult{Success: false, Error: err.Error()}, err
	}
	c.logger.Info("connected to MCP server", "url", cfg.URL, "transport", transport)
	return domain.ConnectionResult{Success: true}, nil
}

func (c *Client) connectSocket(ctx context.Context, cfg domain.ServerConfig) error {
	s, err := dialSocket(ctx, c.dialer, cfg.URL, c.logger, c.socketClosed)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sock = s
	c.mu.Unlock()

	if cfg.APIKey == "" {
		return nil
	}
	if err := s.authenticate(ctx, cfg.APIKey, c.authTimeout); err != nil {
		c.detach(s)
		s.close()
		return err
	}
	return nil
}

// socketClosed runs on the socket's shutdown path. Stale sockets are ignored.
func (c *Client) socketClosed(s *socket, reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock != s {
		return
	}
	c.sock = nil
	if errors.Is(reason, domain.ErrAuthFailed) {
		c.state = domain.StateAuthFailed
	} else {
		c.state = domain.StateDisconnected
	}
}

// detach forgets s without touching the state so its close callback is ignored.
func (c *Client) detach(s *socket) {
	c.mu.Lock()
	if c.sock == s {
		c.sock = nil
	}
	c.mu.Unlock()
}

// teardown closes the current socket, if any, and marks the client disconnected.
func (c *Client) teardown() {
	c.mu.Lock()
	s := c.sock
	c.sock = nil
	c.state = domain.StateDisconnected
	c.mu.Unlock()

	if s != nil {
		s.close()
	}
}

// Close releases the connection. The client can be connected again afterwards.
func (c *Client) Close() error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	c.teardown()
	return nil
}

// SendPrompt sends one completion request over the active transport and returns the
// model's text. It performs no I/O when the client is not connected.
func (c *Client) SendPrompt(ctx context.Context, prompt string) (string, error) {
	c.mu.RLock()
	state, cfg, s := c.state, c.config, c.sock
	c.mu.RUnlock()

	if state != domain.StateConnected {
		return "", domain.ErrNotConnected
	}

	env := completionEnvelope{
		Model:       cfg.Model,
		Prompt:      prompt,
		Temperature: domain.DefaultTemperature,
		MaxTokens:   domain.DefaultMaxTokens,
	}

	start := time.Now()
	var (
		text      string
		err       error
		transport string
	)
	if s != nil {
		transport = TransportSocket
		id := c.nextID()
		c.logger.Debug("sending prompt", "transport", transport, "request_id", id, "size", len(prompt))
		text, err = s.complete(ctx, id, env, c.promptTimeout)
	} else {
		transport = TransportHTTP
		c.logger.Debug("sending prompt", "transport", transport, "size", len(prompt))
		text, err = c.completeHTTP(ctx, cfg, env)
	}

	if c.hooks.OnPrompt != nil {
		c.hooks.OnPrompt(ctx, &domain.PromptEvent{
			Timestamp: time.Now(),
			Transport: transport,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
