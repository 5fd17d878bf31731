package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-address-service/api"
	"user-address-service/internal/adapter/gin/handler"
	"user-address-service/internal/adapter/gin/middleware"
)

const swaggerDocPath = "/openapi/user.swagger.json"

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil. checks are run by /health, keyed by dependency name.
func SetupRouter(
	userHandler *handler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	checks map[string]HealthCheck,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.GET("/health", health(checks))

	router.GET(swaggerDocPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", api.SwaggerJSON)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerDocPath))))

	v1 := router.Group("/v1")
	v1.Use(rateLimiter.Middleware())
	{
		users := v1.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.SearchUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.POST("/:id/addresses", userHandler.AddAddress)
		}

		addresses := v1.Group("/addresses")
		{
			addresses.PUT("/:id", userHandler.UpdateAddress)
			addresses.DELETE("/:id", userHandler.DeleteAddress)
		}
	}

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"service":      "user-address-service",
			"dependencies": deps,
		})
	}
}
