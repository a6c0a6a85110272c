package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Agent is the part of tendril.Agent the API exposes.
type Agent interface {
	Connect(ctx context.Context, cfg domain.ServerConfig) domain.ConnectionResult
	Process(ctx context.Context, request string, cfg domain.ServerConfig) (*domain.RunRecord, error)
	Run(ctx context.Context, runID string) (*domain.RunRecord, error)
	State() domain.ConnectionState
}

var _ Agent = (*tendril.Agent)(nil)

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	Request string              `json:"request"`
	Config  domain.ServerConfig `json:"mcpServerConfig"`
}

// ProcessResponse is the run outcome plus the ID it was recorded under.
type ProcessResponse struct {
	domain.ProcessResult
	RunID string `json:"runId,omitempty"`
}

// Server holds the handlers of the tendril HTTP API.
type Server struct {
	Agent    Agent
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	doc      *openapi3.T
	router   routers.Router
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer mounts GET /metrics serving g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for agent.
func NewHandler(agent Agent, opts ...Option) (http.Handler, error) {
	s := &Server{
		Agent:  agent,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, router, err := loadSpec()
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.router = router

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Get("/healthz", s.Health)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequests)
		r.Post("/connect", s.Connect)
		r.Post("/process", s.Process)
		r.Get("/runs/{id}", s.GetRun)
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Tendril API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Connect handles POST /connect.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ServerConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	res := s.Agent.Connect(r.Context(), cfg)
	if !res.Success {
		s.logger.Warn("connect failed", "url", cfg.URL, "err", res.Error)
	}
	s.writeJSON(w, http.StatusOK, res)
}

// Process handles POST /process. Failed runs are still answered with 200.
func (s *Server) Process(w http.ResponseWriter, r *http.Request) {
	var body ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	request, err := runner.SanitizeInput(body.Request)
	if err != nil {
		s.logger.Warn("process input rejected", "err", err, "size", len(body.Request))
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid input: %w", err))
		return
	}

	rec, err := s.Agent.Process(r.Context(), request, body.Config)
	if rec == nil {
		s.logger.Error("process failed to start", "err", err)
		s.writeJSON(w, http.StatusOK, ProcessResponse{ProcessResult: domain.FailedResult(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, ProcessResponse{ProcessResult: rec.Result, RunID: rec.ID})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Agent.Run(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("run lookup failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc != nil && s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"state":       s.Agent.State().String(),
		"version":     tendril.Version,
		"api_version": apiVersion,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, domain.FailedResult(err))
}
