package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginhandler "user-address-service/internal/adapter/gin/handler"
	"user-address-service/internal/adapter/gin/middleware"
	ginrouter "user-address-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	checks map[string]ginrouter.HealthCheck,
	addr string,
	l *zap.Logger,
) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := ginrouter.SetupRouter(handler, rateLimiter, checks, l)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
