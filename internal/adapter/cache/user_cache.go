package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-address-service/internal/domain/user"
)

const keyPrefix = "user:"

// UserCache stores user rows by ID. Entries never carry addresses: the
// collection is lazy and always read from the database.
type UserCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, id int64) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	DeleteMultiple(ctx context.Context, ids ...int64) error
}

// entry is the cached representation of a user row.
type entry struct {
	ID       int64  `json:"id"`
	Version  int    `json:"version"`
	Username string `json:"username"`
}

// RedisUserCache keeps JSON entries under user:<id> with a fixed TTL.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) UserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	case err != nil:
		c.log.Error("failed to get from cache", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Error("failed to decode cached user", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("decode cached user %d: %w", id, err)
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &domain.User{ID: e.ID, Version: e.Version, Username: e.Username}, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	data, err := json.Marshal(entry{ID: user.ID, Version: user.Version, Username: user.Username})
	if err != nil {
		return fmt.Errorf("encode user %d: %w", user.ID, err)
	}

	if err := c.client.Set(ctx, key(user.ID), data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Int("version", user.Version), zap.Duration("ttl", c.ttl))
	return nil
}

func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	return c.DeleteMultiple(ctx, id)
}

// DeleteMultiple removes all given IDs in one round trip.
func (c *RedisUserCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Error("failed to evict users", zap.Int64s("user_ids", ids), zap.Error(err))
		return err
	}

	c.log.Debug("evicted users", zap.Int64s("user_ids", ids))
	return nil
}
