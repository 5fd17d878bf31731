package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	ginhandler "user-address-service/internal/adapter/gin/handler"
	"user-address-service/internal/adapter/gin/middleware"
	ginrouter "user-address-service/internal/adapter/gin/router"
	"user-address-service/internal/config"
)

// Server owns the REST listener.
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
}

// New creates a new server instance
func New(
	cfg *config.Config,
	l *zap.Logger,
	handler *ginhandler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	checks map[string]ginrouter.HealthCheck,
) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(handler, rateLimiter, checks, httpAddress(cfg), l),
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.Logger.Info("REST API running",
		zap.String("address", s.Gin.Addr),
		zap.String("swagger", "http://localhost"+s.Gin.Addr+"/swagger/index.html"),
	)

	if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Gin.Shutdown(ctx)
}

func httpAddress(cfg *config.Config) string {
	return ":" + cfg.App.HTTPPort
}
