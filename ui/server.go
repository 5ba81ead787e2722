package ui

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gonarrative/app"
	"gonarrative/internal/rules"
)

// Server exposes narratives over a small JSON API for dashboards
type Server struct {
	router     *gin.Engine
	narratives *app.NarrativeService
	reports    *app.ReportService
	registry   *rules.Registry
	logger     *zap.Logger
	limiter    *rate.Limiter
	httpServer *http.Server
}

// ServerConfig tunes the HTTP surface
type ServerConfig struct {
	GinMode        string
	RequestsPerSec float64 // 0 disables rate limiting
	Burst          int
}

// NewServer wires routes and middleware
func NewServer(cfg ServerConfig, narratives *app.NarrativeService, reports *app.ReportService, registry *rules.Registry, logger *zap.Logger) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = rules.NewRegistry()
	}

	s := &Server{
		router:     gin.New(),
		narratives: narratives,
		reports:    reports,
		registry:   registry,
		logger:     logger,
	}
	if cfg.RequestsPerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/sections", s.handleSections)
	api.GET("/sections/:id/narrative", s.handleNarrative)
	api.GET("/filters/:field", s.handleFilterValues)
	api.GET("/rules", s.handleRules)
	api.GET("/report", s.handleReport)
}

// Start serves until the context is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("narrative server listening", zap.String("addr", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("narrative server shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
