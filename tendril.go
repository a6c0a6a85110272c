package tendril

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/orchestrator"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/session"
	"github.com/aretw0/tendril/pkg/transport"
)

// DefaultAgentName is the lock key used when WithName is not given.
const DefaultAgentName = "default"

// connector is implemented by transports that can force a fresh connection.
type connector interface {
	Connect(ctx context.Context, cfg domain.ServerConfig) (domain.ConnectionResult, error)
}

// Agent is the high-level entry point of the library.
// It owns one transport connection and runs requests against it one at a time.
type Agent struct {
	Name string

	transport     ports.PromptTransport
	transportOpts []transport.Option
	orch          *orchestrator.Orchestrator
	sessions      *session.Manager
	store         ports.RunStore
	locker        ports.DistributedLocker
	metrics       *observability.Metrics
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// Option defines a functional option for configuring the Agent.
type Option func(*Agent)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Multiple calls are chained.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Agent) {
		a.hooks = a.hooks.Merge(hooks)
	}
}

// WithTransport replaces the default WebSocket/HTTP client.
func WithTransport(t ports.PromptTransport) Option {
	return func(a *Agent) {
		a.transport = t
	}
}

// WithTransportOptions passes options to the default client.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(a *Agent) {
		a.transportOpts = append(a.transportOpts, opts...)
	}
}

// WithRunStore sets where finished runs are recorded. The default keeps them in memory.
func WithRunStore(store ports.RunStore) Option {
	return func(a *Agent) {
		a.store = store
	}
}

// WithLocker serializes runs across processes sharing the agent name.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(a *Agent) {
		a.locker = locker
	}
}

// WithMetrics records Prometheus metrics for connections, prompts, phases and runs.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithName sets the agent name, used as the run lock key.
func WithName(name string) Option {
	return func(a *Agent) {
		a.Name = name
	}
}

// New creates an Agent.
func New(opts ...Option) *Agent {
	a := &Agent{Name: DefaultAgentName}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	a.logger = a.logger.With("agent", a.Name)

	hooks := a.hooks
	if a.metrics != nil {
		hooks = hooks.Merge(a.metrics.Hooks())
	}

	if a.transport == nil {
		topts := append([]transport.Option{
			transport.WithLogger(a.logger),
			transport.WithHooks(hooks),
		}, a.transportOpts...)
		a.transport = transport.New(topts...)
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}

	a.orch = orchestrator.New(a.transport,
		orchestrator.WithLogger(a.logger),
		orchestrator.WithHooks(hooks),
	)

	sessOpts := []session.Option{session.WithLogger(a.logger)}
	if a.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(a.locker))
	}
	a.sessions = session.NewManager(a.store, sessOpts...)
	return a
}

// Connect opens a fresh connection to cfg, replacing any existing one.
func (a *Agent) Connect(ctx context.Context, cfg domain.ServerConfig) domain.ConnectionResult {
	if c, ok := a.transport.(connector); ok {
		res, _ := c.Connect(ctx, cfg)
		return res
	}
	ok, err := a.transport.EnsureConnection(ctx, cfg)
	if err != nil {
		return domain.ConnectionResult{Success: false, Error: err.Error()}
	}
	return domain.ConnectionResult{Success: ok}
}

// ProcessRequest runs request against cfg and returns the caller-facing result.
func (a *Agent) ProcessRequest(ctx context.Context, request string, cfg domain.ServerConfig) domain.ProcessResult {
	rec, err := a.Process(ctx, request, cfg)
	if rec == nil {
		return domain.FailedResult(err)
	}
	return rec.Result
}

// Process runs request against cfg and records the run. The record is nil only when
// the run could not start (for example when waiting for the run lock was canceled).
func (a *Agent) Process(ctx context.Context, request string, cfg domain.ServerConfig) (*domain.RunRecord, error) {
	a.logger.Info("processing request", "url", cfg.URL, "size", len(request))

	rec, err := a.sessions.Run(ctx, a.Name, request, func(ctx context.Context) (domain.ProcessResult, error) {
		return a.orch.Process(ctx, request, cfg)
	})
	if rec != nil && a.metrics != nil {
		a.metrics.ObserveRun(rec.Result)
	}
	if rec != nil {
		a.logger.Info("request processed", "run_id", rec.ID, "success", rec.Result.Success)
	}
	return rec, err
}

// Run returns a recorded run by ID.
func (a *Agent) Run(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return a.sessions.Load(ctx, runID)
}

// LastRun returns the most recent recorded run.
func (a *Agent) LastRun(ctx context.Context) (*domain.RunRecord, error) {
	return a.sessions.Latest(ctx)
}

// State reports the connection state when the transport exposes it.
func (a *Agent) State() domain.ConnectionState {
	if s, ok := a.transport.(interface{ State() domain.ConnectionState }); ok {
		return s.State()
	}
	return domain.StateDisconnected
}

// Close releases the transport connection.
func (a *Agent) Close() error {
	if c, ok := a.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
