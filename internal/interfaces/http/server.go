// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homeshine/conflict-engine/internal/application/service"
	"github.com/homeshine/conflict-engine/internal/infrastructure/reporting"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the server exposes
type Services struct {
	Appeals     service.AppealService
	Adjustments service.AdjustmentService
	Queue       service.QueueService
	Money       service.MoneyMovementService
	Ledger      service.LedgerService
	Audit       service.AuditService
	Exporter    *reporting.LedgerExporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes
	api := s.router.Group("/api")
	{
		// Appeals
		api.POST("/appeals", handlers.SubmitAppeal)
		api.GET("/appeals", handlers.ListAppeals)
		api.GET("/appeals/:id", handlers.GetAppeal)
		api.POST("/appeals/:id/assign", handlers.AssignAppeal)
		api.POST("/appeals/:id/status", handlers.UpdateAppealStatus)
		api.POST("/appeals/:id/resolve", handlers.ResolveAppeal)

		// Size adjustment cases
		api.GET("/adjustments", handlers.ListAdjustments)
		api.GET("/adjustments/:id", handlers.GetAdjustment)
		api.POST("/adjustments/:id/resolve", handlers.ResolveAdjustment)

		// Unified conflict queue
		api.GET("/queue", handlers.GetQueue)
		api.GET("/queue/stats", handlers.GetQueueStats)

		// Money movement
		api.POST("/money/refund", handlers.Refund)
		api.POST("/money/payout", handlers.Payout)

		// Ledger
		api.GET("/ledger/appointments/:id", handlers.GetAppointmentLedger)
		api.GET("/ledger/summary", handlers.GetLedgerSummary)
		api.POST("/ledger/reconcile", handlers.RunReconciliation)
		api.GET("/ledger/export", handlers.ExportLedger)

		// Audit trail
		api.GET("/audit", handlers.SearchAudit)
		api.GET("/audit/appointments/:id", handlers.GetAuditTrail)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
