package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"syncbridge/pkg/config"
	"syncbridge/pkg/handlers"
	"syncbridge/pkg/middleware"
	"syncbridge/pkg/service"
)

// Server constants
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
)

// HTTPServer represents the HTTP server component
type HTTPServer struct {
	server     *http.Server
	engine     *gin.Engine
	handlerSvc *handlers.HandlerService
	log        *zap.Logger
}

// NewHTTPServer creates a new HTTP server instance
func NewHTTPServer(cfg *config.Config, svc *service.SyncService, log *zap.Logger) *HTTPServer {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.GinZapLogger())
	engine.Use(middleware.ErrorHandler())
	engine.Use(cors.Default())

	s := &HTTPServer{
		engine:     engine,
		handlerSvc: handlers.NewHandlerService(svc),
		log:        log,
	}
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	log.Info("HTTP server initialized", zap.String("listen_addr", addr))
	return s
}

// setupRoutes configures all HTTP routes
func (s *HTTPServer) setupRoutes() {
	h := s.handlerSvc

	s.engine.GET("/health", h.HealthCheck)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/sources", h.CreateSource)
		v1.GET("/sources", h.ListSources)
		v1.GET("/sources/:id", h.GetSource)

		v1.POST("/jobs", h.CreateJob)
		v1.GET("/jobs", h.ListJobs)
		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.DeleteJob)
		v1.GET("/jobs/:id/status", h.GetJobStatus)
		v1.POST("/jobs/:id/execute", h.ExecuteJob)
		v1.POST("/jobs/:id/activate", h.ActivateJob)
		v1.POST("/jobs/:id/deactivate", h.DeactivateJob)
		v1.GET("/jobs/:id/conflicts", h.ListJobConflicts)

		v1.POST("/conflicts/:id/resolve", h.ResolveConflict)

		v1.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.log.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
