package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
)

// Options carries the command-line settings shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
	JSON       bool

	// Server holds flag overrides. Empty fields keep the file or environment value.
	Server domain.ServerConfig

	Stdin  io.Reader
	Stdout io.Writer
}

func (o Options) stdin() io.Reader {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

func (o Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

// LoadConfig resolves the configuration: flags over environment over file over defaults.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.Server.URL != "" {
		cfg.Server.URL = opts.Server.URL
	}
	if opts.Server.APIKey != "" {
		cfg.Server.APIKey = opts.Server.APIKey
	}
	if opts.Server.Model != "" {
		cfg.Server.Model = opts.Server.Model
	}
	return cfg, nil
}

func requireEndpoint(cfg config.Config) error {
	if cfg.Server.URL == "" {
		return fmt.Errorf("no endpoint configured: set --url, %s or server.url in %s", config.EnvURL, config.DefaultPath)
	}
	return nil
}

// App is a configured Agent plus the resources it owns.
type App struct {
	Agent  *tendril.Agent
	Config config.Config
	Store  ports.RunStore

	closers []func() error
}

// NewApp wires the run store, lock, metrics and transport described by cfg.
// reg may be nil to disable metrics.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, debug bool, reg prometheus.Registerer) (*App, error) {
	app := &App{Config: cfg}

	var store ports.RunStore
	var locker ports.DistributedLocker
	if cfg.Redis.Addr != "" {
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithTTL(cfg.Store.TTL),
			redis.WithPrefix(cfg.Redis.Prefix),
		)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Redis.Addr, err)
		}
		app.closers = append(app.closers, rs.Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
		logger.Debug("using redis run store", "addr", cfg.Redis.Addr)
	} else {
		store = memory.NewStore(
			memory.WithTTL(cfg.Store.TTL),
			memory.WithCapacity(cfg.Store.Capacity),
		)
	}

	var mws []middleware.Middleware
	if cfg.Store.Redact {
		mw, err := middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)
		if err != nil {
			return nil, app.fail(err)
		}
		mws = append(mws, mw)
	}
	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, app.fail(err)
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, app.fail(err)
		}
		mws = append(mws, mw)
	}
	app.Store = middleware.Chain(store, mws...)

	agentOpts := []tendril.Option{
		tendril.WithLogger(logger),
		tendril.WithRunStore(app.Store),
		tendril.WithTransportOptions(
			transport.WithPromptTimeout(cfg.Transport.PromptTimeout),
			transport.WithAuthTimeout(cfg.Transport.AuthTimeout),
		),
	}
	if locker != nil {
		agentOpts = append(agentOpts, tendril.WithLocker(locker))
	}
	if debug {
		agentOpts = append(agentOpts, tendril.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	if reg != nil {
		m, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, app.fail(err)
		}
		agentOpts = append(agentOpts, tendril.WithMetrics(m))
	}

	app.Agent = tendril.New(agentOpts...)
	app.closers = append([]func() error{app.Agent.Close}, app.closers...)
	return app, nil
}

func (a *App) fail(err error) error {
	_ = a.Close()
	return err
}

// Close releases the connection and the store, in that order.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
