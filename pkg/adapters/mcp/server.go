package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// LastRunURI is the resource holding the most recent run record.
const LastRunURI = "tendril://runs/last"

// Agent is the part of tendril.Agent exposed as MCP tools.
type Agent interface {
	Connect(ctx context.Context, cfg domain.ServerConfig) domain.ConnectionResult
	Process(ctx context.Context, request string, cfg domain.ServerConfig) (*domain.RunRecord, error)
	LastRun(ctx context.Context) (*domain.RunRecord, error)
}

var _ Agent = (*tendril.Agent)(nil)

// ServerArgs selects the model endpoint. Empty fields fall back to the server defaults.
type ServerArgs struct {
	URL    string `json:"url,omitempty"`
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`
}

// ProcessArgs are the arguments of the process_request tool.
type ProcessArgs struct {
	ServerArgs
	Request string `json:"request"`
}

// ProcessResponse is the structured output of process_request.
type ProcessResponse struct {
	Success       bool                `json:"success" jsonschema_description:"Whether the run completed"`
	Steps         []domain.TraceEntry `json:"steps,omitempty" jsonschema_description:"Execution trace of the run"`
	FinalResponse string              `json:"finalResponse,omitempty" jsonschema_description:"Synthesized answer"`
	Error         string              `json:"error,omitempty" jsonschema_description:"Failure message"`
	RunID         string              `json:"runId,omitempty" jsonschema_description:"ID the run was recorded under"`
}

// Server exposes a tendril Agent as an MCP server.
type Server struct {
	agent     Agent
	defaults  domain.ServerConfig
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithDefaultConfig sets the endpoint used when a tool call names none.
func WithDefaultConfig(cfg domain.ServerConfig) Option {
	return func(s *Server) {
		s.defaults = cfg
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(agent Agent, opts ...Option) *Server {
	s := &Server{
		agent:  agent,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("tendril-mcp", tendril.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	connectTool := mcp.NewTool("connect_server",
		mcp.WithDescription("Connect to a model endpoint. ws:// and wss:// URLs use the socket transport, anything else HTTP."),
		mcp.WithString("url", mcp.Description("Endpoint URL (optional when the server has a default)")),
		mcp.WithString("api_key", mcp.Description("Credential sent during the handshake")),
		mcp.WithString("model", mcp.Description("Model identifier")),
		mcp.WithOutputSchema[domain.ConnectionResult](),
	)
	s.mcpServer.AddTool(connectTool, mcp.NewStructuredToolHandler(s.handleConnect))

	processTool := mcp.NewTool("process_request",
		mcp.WithDescription("Analyze, plan, execute and synthesize a request against the model endpoint."),
		mcp.WithString("request", mcp.Required(), mcp.Description("The user request")),
		mcp.WithString("url", mcp.Description("Endpoint URL (optional when the server has a default)")),
		mcp.WithString("api_key", mcp.Description("Credential sent during the handshake")),
		mcp.WithString("model", mcp.Description("Model identifier")),
		mcp.WithOutputSchema[ProcessResponse](),
	)
	s.mcpServer.AddTool(processTool, mcp.NewStructuredToolHandler(s.handleProcess))
}

// config overlays the call arguments on the defaults.
func (s *Server) config(args ServerArgs) (domain.ServerConfig, error) {
	cfg := s.defaults
	if args.URL != "" {
		cfg.URL = args.URL
	}
	if args.APIKey != "" {
		cfg.APIKey = args.APIKey
	}
	if args.Model != "" {
		cfg.Model = args.Model
	}
	if cfg.URL == "" {
		return cfg, errors.New("url is required: no default endpoint configured")
	}
	return cfg, nil
}

func (s *Server) handleConnect(ctx context.Context, _ mcp.CallToolRequest, args ServerArgs) (domain.ConnectionResult, error) {
	cfg, err := s.config(args)
	if err != nil {
		return domain.ConnectionResult{}, err
	}
	res := s.agent.Connect(ctx, cfg)
	if !res.Success {
		s.logger.Warn("MCP connect failed", "url", cfg.URL, "err", res.Error)
	}
	return res, nil
}

func (s *Server) handleProcess(ctx context.Context, _ mcp.CallToolRequest, args ProcessArgs) (ProcessResponse, error) {
	cfg, err := s.config(args.ServerArgs)
	if err != nil {
		return ProcessResponse{}, err
	}

	request, err := runner.SanitizeInput(args.Request)
	if err != nil {
		s.logger.Warn("MCP process: input rejected", "err", err, "size", len(args.Request))
		return ProcessResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	rec, err := s.agent.Process(ctx, request, cfg)
	if rec == nil {
		res := domain.FailedResult(err)
		return ProcessResponse{Success: false, Error: res.Error}, nil
	}
	return ProcessResponse{
		Success:       rec.Result.Success,
		Steps:         rec.Result.Steps,
		FinalResponse: rec.Result.FinalResponse,
		Error:         rec.Result.Error,
		RunID:         rec.ID,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(LastRunURI, "Most recent run",
		mcp.WithResourceDescription("The latest recorded orchestration run"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		rec, err := s.agent.LastRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load last run: %w", err)
		}
		jsonBytes, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      LastRunURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
