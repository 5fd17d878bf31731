package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-address-service/internal/domain/user"
)

// setupTestCache creates a miniredis-backed cache for testing
func setupTestCache(t *testing.T, ttl time.Duration) (UserCache, *redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisUserCache(client, ttl, zaptest.NewLogger(t)), client, mr
}

func TestRedisUserCache_Set_StripsAddresses(t *testing.T) {
	cache, client, _ := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	user := &domain.User{ID: 1, Version: 2, Username: "jdoe"}
	user.AddAddress(&domain.Address{ID: 10, Line1: "1 Main St"})

	require.NoError(t, cache.Set(ctx, user))

	data, err := client.Get(ctx, "user:1").Bytes()
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":1,"version":2,"username":"jdoe"}`, string(data))

	// The caller's collection is left alone.
	assert.Len(t, user.Addresses, 1)
}

func TestRedisUserCache_Set_NilUser(t *testing.T) {
	cache, _, _ := setupTestCache(t, 5*time.Minute)

	err := cache.Set(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cache nil user")
}

func TestRedisUserCache_GetAfterSet(t *testing.T) {
	cache, _, _ := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.User{ID: 3, Version: 1, Username: "jane"}))

	cached, err := cache.Get(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "jane", cached.Username)
	assert.Equal(t, 1, cached.Version)
}

func TestRedisUserCache_Get_Miss(t *testing.T) {
	cache, _, _ := setupTestCache(t, 5*time.Minute)

	cached, err := cache.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_Corrupt(t *testing.T) {
	cache, client, _ := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "user:5", "not json", 0).Err())

	cached, err := cache.Get(ctx, 5)
	assert.Error(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Delete(t *testing.T) {
	cache, _, _ := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.User{ID: 1, Username: "jdoe"}))
	require.NoError(t, cache.Delete(ctx, 1))

	cached, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_DeleteMultiple(t *testing.T) {
	cache, _, mr := setupTestCache(t, 5*time.Minute)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, cache.Set(ctx, &domain.User{ID: id, Username: "u"}))
	}

	require.NoError(t, cache.DeleteMultiple(ctx, 1, 2))
	assert.False(t, mr.Exists("user:1"))
	assert.False(t, mr.Exists("user:2"))
	assert.True(t, mr.Exists("user:3"))

	assert.NoError(t, cache.DeleteMultiple(ctx))
}

func TestRedisUserCache_TTL(t *testing.T) {
	cache, _, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.User{ID: 1, Username: "jdoe"}))
	assert.Equal(t, time.Minute, mr.TTL("user:1"))

	mr.FastForward(2 * time.Minute)

	cached, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
