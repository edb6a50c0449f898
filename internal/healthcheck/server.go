package healthcheck

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

// ReadinessCheck reports whether a dependency is able to serve.
type ReadinessCheck func(ctx context.Context) error

// Server represents a health check HTTP server
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux // Expose mux for adding handlers
	logger     *zap.Logger
	checks     map[string]ReadinessCheck
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates a new health check server
func NewServer(port string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	server := &Server{
		httpServer: &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		},
		mux:    mux, // Store the mux
		logger: logger,
		checks: make(map[string]ReadinessCheck),
	}

	// Register default health check endpoints
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/ready", server.handleReady)

	return server
}

// RegisterReadinessCheck adds a named dependency check consulted by /ready.
// Must be called before Start.
func (s *Server) RegisterReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.mux.Handle("/metrics", handler)
}

// Start begins the HTTP server
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting health check server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Health check server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping health check server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "UP",
		Version: "1.0.0",
	}

	utils.WriteJSONResponse(w, http.StatusOK, resp)
}

// handleReady handles the /ready endpoint for readiness probes
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	details := map[string]string{
		"timestamp": utils.FormatISO8601(utils.Now()),
	}

	status := "READY"
	code := http.StatusOK
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			details[name] = err.Error()
			status = "NOT_READY"
			code = http.StatusServiceUnavailable
		} else {
			details[name] = "ok"
		}
	}

	resp := HealthResponse{
		Status:  status,
		Details: details,
	}

	utils.WriteJSONResponse(w, code, resp)
}
