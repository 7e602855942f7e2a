package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/pipeline"
)

const readinessTimeout = 2 * time.Second

// RunState is the view of the pipeline the status endpoints report on.
type RunState interface {
	CheckReadiness(ctx context.Context) error
	LastRun() (pipeline.Summary, bool)
}

// Server serves the operational endpoints of a pipeline process while it
// runs and, optionally, after the run has finished.
type Server struct {
	httpServer *http.Server
	state      RunState
	logger     *slog.Logger
}

// NewServer wires /healthz, /readyz, /runs/last and /metrics.
func NewServer(addr string, state RunState, logger *slog.Logger) *Server {
	s := &Server{state: state, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	mux.HandleFunc("GET /runs/last", s.lastRun)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start listens until Shutdown, then returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains open connections until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP routes a single request; tests call it directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, status{Status: "healthy"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.state.CheckReadiness(ctx); err != nil {
		respond(w, http.StatusServiceUnavailable, status{Status: "not ready", Error: err.Error()})
		return
	}
	respond(w, http.StatusOK, status{Status: "ready"})
}

func (s *Server) lastRun(w http.ResponseWriter, _ *http.Request) {
	summary, ok := s.state.LastRun()
	if !ok {
		respond(w, http.StatusNotFound, status{Status: "no run finished yet"})
		return
	}
	respond(w, http.StatusOK, summary)
}

// logRequests emits one debug line per request with its outcome.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

type status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body) //nolint:errcheck // client may have gone away
}
