package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-address-service/cmd/api/infrastructure"
	"user-address-service/internal/adapter/cache"
	"user-address-service/internal/adapter/db/postgres"
	ginhandler "user-address-service/internal/adapter/gin/handler"
	"user-address-service/internal/adapter/gin/middleware"
	ginrouter "user-address-service/internal/adapter/gin/router"
	"user-address-service/internal/adapter/repository/cached"
	"user-address-service/internal/config"
	"user-address-service/internal/usecase/user"
	redisclient "user-address-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	RedisClient  *redisclient.Client // nil when Redis is disabled
	UserUC       user.Usecase
	RateLimiter  *middleware.RateLimiter
	GinHandler   *ginhandler.UserHandler
	HealthChecks map[string]ginrouter.HealthCheck
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Logger:       l,
		DB:           db,
		RedisClient:  rdb,
		HealthChecks: map[string]ginrouter.HealthCheck{"database": pingDatabase(db)},
	}

	var repo user.Repository = postgres.NewUserRepoPG(db, l)
	if rdb != nil {
		userCache := cache.NewRedisUserCache(rdb.Client, time.Duration(cfg.Redis.CacheTTL)*time.Second, l)
		repo = cached.NewCachedUserRepository(repo, userCache, l)

		c.RateLimiter = middleware.NewRateLimiter(rdb.Client, middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		}, l)
		c.HealthChecks["redis"] = rdb.Healthy
	}

	c.UserUC = user.New(repo, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

func pingDatabase(db *gorm.DB) ginrouter.HealthCheck {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
