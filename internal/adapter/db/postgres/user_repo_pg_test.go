package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"user-address-service/internal/criteria"
	"user-address-service/internal/domain/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// Migrate the schema
	err = AutoMigrate(db)
	require.NoError(t, err)

	return db
}

func setupRepo(t *testing.T) (*UserRepoPG, *gorm.DB) {
	db := setupTestDB(t)
	return NewUserRepoPG(db, zaptest.NewLogger(t)), db
}

func newUserWithAddresses(username string, lines ...string) *user.User {
	u := &user.User{Username: username}
	for _, l := range lines {
		u.AddAddress(&user.Address{Line1: l, Line2: l + " 2", Line3: l + " 3"})
	}
	return u
}

func TestUserRepoPG_Create_CascadesAddresses(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St", "2 Side St")
	require.NoError(t, repo.Create(ctx, u))

	assert.NotZero(t, u.ID)
	assert.Equal(t, 0, u.Version)
	for _, a := range u.Addresses {
		assert.NotZero(t, a.ID)
		assert.Equal(t, u.ID, a.UserID)
		assert.Same(t, u, a.User)
	}

	var count int64
	require.NoError(t, db.Model(&AddressSchema{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUserRepoPG_Create_Nil(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepoPG_GetByID_LazyAddresses(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St")
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.Username)
	assert.Nil(t, got.Addresses, "addresses must not be fetched eagerly")

	require.NoError(t, repo.LoadAddresses(ctx, got))
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "1 Main St", got.Addresses[0].Line1)
	assert.Same(t, got, got.Addresses[0].User)
}

func TestUserRepoPG_LoadAddresses_Empty(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := &user.User{Username: "nobody"}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.LoadAddresses(ctx, u))
	assert.NotNil(t, u.Addresses)
	assert.Empty(t, u.Addresses)
}

func TestUserRepoPG_GetByID_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserRepoPG_Update_IncrementsVersion(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St")
	require.NoError(t, repo.Create(ctx, u))

	u.Username = "john"
	u.Addresses[0].Line1 = "10 Main St"
	u.AddAddress(&user.Address{Line1: "3 New St"})
	require.NoError(t, repo.Update(ctx, u))

	assert.Equal(t, 1, u.Version)
	assert.Equal(t, 1, u.Addresses[0].Version)
	assert.NotZero(t, u.Addresses[1].ID)
	assert.Equal(t, 0, u.Addresses[1].Version)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "john", got.Username)
	assert.Equal(t, 1, got.Version)

	require.NoError(t, repo.LoadAddresses(ctx, got))
	require.Len(t, got.Addresses, 2)
	assert.Equal(t, "10 Main St", got.Addresses[0].Line1)
	assert.Equal(t, 1, got.Addresses[0].Version)
}

func TestUserRepoPG_Update_StaleVersion(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := &user.User{Username: "jdoe"}
	require.NoError(t, repo.Create(ctx, u))

	first, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	first.Username = "first"
	require.NoError(t, repo.Update(ctx, first))

	second.Username = "second"
	err = repo.Update(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, user.ErrStaleVersion)
	assert.Equal(t, 0, second.Version, "failed update must not touch the version")

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Username)
}

func TestUserRepoPG_Update_StaleAddressRollsBack(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St")
	require.NoError(t, repo.Create(ctx, u))

	// Someone else updates the address first.
	other, err := repo.GetAddressByID(ctx, u.Addresses[0].ID)
	require.NoError(t, err)
	other.Line1 = "elsewhere"
	require.NoError(t, repo.UpdateAddress(ctx, other))

	u.Username = "john"
	u.Addresses[0].Line1 = "mine"
	err = repo.Update(ctx, u)
	assert.ErrorIs(t, err, user.ErrStaleVersion)
	assert.Equal(t, 0, u.Version)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.Username, "user update must roll back with the address")
	assert.Equal(t, 0, got.Version)
}

func TestUserRepoPG_Update_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.Update(context.Background(), &user.User{ID: 99, Username: "ghost"})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserRepoPG_Delete_Cascades(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St", "2 Side St")
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.Delete(ctx, u.ID))

	_, err := repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&AddressSchema{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserRepoPG_Delete_Errors(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	assert.Error(t, repo.Delete(ctx, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 12), user.ErrNotFound)
}

func TestUserRepoPG_Address_LazyOwner(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St")
	require.NoError(t, repo.Create(ctx, u))

	a, err := repo.GetAddressByID(ctx, u.Addresses[0].ID)
	require.NoError(t, err)
	require.NotNil(t, a.User)
	assert.Equal(t, u.ID, a.User.ID)
	assert.Empty(t, a.User.Username, "owner is a stub until loaded")

	require.NoError(t, repo.LoadOwner(ctx, a))
	assert.Equal(t, "jdoe", a.User.Username)
}

func TestUserRepoPG_UpdateAddress_DoesNotCascadeToOwner(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St")
	require.NoError(t, repo.Create(ctx, u))

	a, err := repo.GetAddressByID(ctx, u.Addresses[0].ID)
	require.NoError(t, err)
	a.Line2 = "Suite 100"
	a.User.Username = "changed through address"
	require.NoError(t, repo.UpdateAddress(ctx, a))
	assert.Equal(t, 1, a.Version)

	owner, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", owner.Username)
	assert.Equal(t, 0, owner.Version)

	// The stale copy held by u now conflicts.
	u.Addresses[0].Line2 = "stale"
	err = repo.UpdateAddress(ctx, u.Addresses[0])
	assert.ErrorIs(t, err, user.ErrStaleVersion)
}

func TestUserRepoPG_DeleteAddress(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := newUserWithAddresses("jdoe", "1 Main St", "2 Side St")
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.DeleteAddress(ctx, u.Addresses[0].ID))
	assert.ErrorIs(t, repo.DeleteAddress(ctx, u.Addresses[0].ID), user.ErrNotFound)
	assert.Error(t, repo.DeleteAddress(ctx, -1))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, repo.LoadAddresses(ctx, got))
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "2 Side St", got.Addresses[0].Line1)
}

func TestUserRepoPG_Search(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for _, name := range []string{"john_doe", "johnny", "jane", "admin%1"} {
		require.NoError(t, repo.Create(ctx, &user.User{Username: name}))
	}

	tests := []struct {
		name        string
		query       criteria.Query
		page, limit int64
		expectCount int
		expectTotal int64
	}{
		{name: "contains", query: criteria.Like("username", criteria.ContainsPattern("john")), page: 1, limit: 10, expectCount: 2, expectTotal: 2},
		{name: "escaped underscore", query: criteria.Like("username", criteria.ContainsPattern("n_d")), page: 1, limit: 10, expectCount: 1, expectTotal: 1},
		{name: "escaped percent", query: criteria.Like("username", criteria.ContainsPattern("%")), page: 1, limit: 10, expectCount: 1, expectTotal: 1},
		{name: "all paged", query: criteria.Like("username", "%"), page: 2, limit: 3, expectCount: 1, expectTotal: 4},
		{name: "case insensitive", query: criteria.Like("username", "JANE"), page: 1, limit: 10, expectCount: 1, expectTotal: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := repo.Search(ctx, tt.query, tt.page, tt.limit)
			require.NoError(t, err)
			assert.Len(t, users, tt.expectCount)
			assert.Equal(t, tt.expectTotal, total)
		})
	}
}

func TestUserRepoPG_Search_InvalidProperty(t *testing.T) {
	repo, _ := setupRepo(t)

	users, _, err := repo.Search(context.Background(), criteria.Like("password", "x"), 1, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, criteria.ErrInvalidProperty))
	assert.Nil(t, users)
}
