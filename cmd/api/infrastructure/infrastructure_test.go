package infrastructure

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-address-service/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	cfg.Logger.Level = "silent"
	return cfg
}

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := testConfig(t)

	db, err := NewDatabase(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("user_addresses"))
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"

	_, err := NewDatabase(cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestCloseDatabase_Nil(t *testing.T) {
	assert.NoError(t, CloseDatabase(nil))
}

func TestNewRedisClient(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Redis.Enabled = false

		rdb, err := NewRedisClient(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, rdb)
	})

	t.Run("enabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		host, port, err := net.SplitHostPort(mr.Addr())
		require.NoError(t, err)

		cfg := testConfig(t)
		cfg.Redis.Enabled = true
		cfg.Redis.Host = host
		cfg.Redis.Port = port

		rdb, err := NewRedisClient(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, rdb)
		t.Cleanup(func() { _ = rdb.Close() })
		assert.NoError(t, rdb.Healthy(context.Background()))
	})
}
