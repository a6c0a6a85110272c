package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/aretw0/tendril/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// newRegistry returns a registry with the process and runtime collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newServers builds the API server and, when a separate address is configured, the metrics server.
func newServers(app *App, reg *prometheus.Registry, logger *slog.Logger) ([]*http.Server, error) {
	handlerOpts := []httpadapter.Option{httpadapter.WithLogger(logger)}
	if app.Config.HTTP.MetricsAddr == "" {
		handlerOpts = append(handlerOpts, httpadapter.WithGatherer(reg))
	}
	handler, err := httpadapter.NewHandler(app.Agent, handlerOpts...)
	if err != nil {
		return nil, err
	}

	servers := []*http.Server{{
		Addr:              app.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if app.Config.HTTP.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{
			Addr:              app.Config.HTTP.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}
	return servers, nil
}

// Serve runs the HTTP API until ctx is canceled or a listener fails.
func Serve(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger := createServiceLogger(opts.Debug)
	reg := newRegistry()

	app, err := NewApp(ctx, cfg, logger, opts.Debug, reg)
	if err != nil {
		return err
	}
	defer app.Close()

	servers, err := newServers(app, reg, logger)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	g, gctx := errgroup.WithContext(sigCtx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "signal", sigCtx.Signal())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("graceful shutdown of %s did not complete: %w", srv.Addr, err))
				_ = srv.Close()
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// ServeMCP runs the MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, opts Options, transport string, port int) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	// Stdout carries JSON-RPC in stdio mode; logs always go to stderr.
	logger := createServiceLogger(opts.Debug)

	app, err := NewApp(ctx, cfg, logger, opts.Debug, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := mcp.NewServer(app.Agent,
		mcp.WithDefaultConfig(cfg.Server),
		mcp.WithLogger(logger),
	)

	if transport == "" {
		transport = cfg.MCP.Transport
	}
	if port == 0 {
		port = cfg.MCP.Port
	}

	switch transport {
	case "stdio":
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(ctx)
		defer sigCtx.Cancel()
		logger.Info("starting MCP server (SSE)", "port", port)
		return srv.ServeSSE(sigCtx, port)
	default:
		return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
	}
}
