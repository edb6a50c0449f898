package queryapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/storage"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
)

// ImportService runs CSV imports submitted through the API rather than the
// event stream.
type ImportService interface {
	RunImport(ctx context.Context, payload model.ImportLeadsPayload, metadata *model.LastMetadata) (*model.ImportSummary, error)
}

// Server exposes the read-side query API. Every response is computed from
// the workspace's current collection; nothing derived is stored.
type Server struct {
	engine           *gin.Engine
	httpServer       *http.Server
	leadRepo         storage.LeadRepo
	importService    ImportService
	defaultWorkspace string
}

// NewServer builds the query API server. importService may be nil, in which
// case the import endpoint reports the capability as unavailable.
func NewServer(port int, leadRepo storage.LeadRepo, importService ImportService, defaultWorkspace string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(), gin.Recovery())

	s := &Server{
		engine:           engine,
		leadRepo:         leadRepo,
		importService:    importService,
		defaultWorkspace: defaultWorkspace,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

// Engine returns the underlying gin engine, used by tests to drive requests
// without a listener.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.workspaceResolver())
	{
		v1.GET("/leads", s.listLeads)
		v1.GET("/leads/numbers", s.leadNumbers)
		v1.GET("/analytics/timeseries", s.timeSeries)
		v1.GET("/analytics/funnel", s.funnel)
		v1.GET("/analytics/sources", s.sourceConversions)
		v1.GET("/analytics/velocity", s.stageVelocity)
		v1.POST("/imports", s.runImport)
	}
}

// Start begins serving. Blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	logger.Log.Info("Starting query API server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("query API server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	logger.Log.Info("Stopping query API server")
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs one line per request with the fields the rest of the
// service logs under.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// workspaceResolver resolves the target workspace from the query string or
// the X-Workspace-Id header, falling back to the configured default. The
// resolved ID lands on the request context the way consumers put it there,
// so the repository layer behaves identically on both paths.
func (s *Server) workspaceResolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID := c.Query("workspace_id")
		if workspaceID == "" {
			workspaceID = c.GetHeader("X-Workspace-Id")
		}
		if workspaceID == "" {
			workspaceID = s.defaultWorkspace
		}
		if workspaceID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "workspace_id is required"})
			return
		}

		ctx := workspace.WithID(c.Request.Context(), workspaceID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("workspace_id", workspaceID)
		c.Next()
	}
}
