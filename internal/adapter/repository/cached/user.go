package cached

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-address-service/internal/adapter/cache"
	"user-address-service/internal/criteria"
	domain "user-address-service/internal/domain/user"
	"user-address-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
// Only the user row is cached; addresses always come from the database.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
// A nil cache disables caching.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the DB repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.dbRepo.Create(ctx, u)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
// Every caller gets its own copy, so mutating the result is safe.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.Int64("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede
	key := fmt.Sprintf("user:%d", id)
	result, err, _ := r.group.Do(key, func() (any, error) {
		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, u); err != nil {
				r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
			}
		}

		return u, nil
	})
	if err != nil {
		return nil, err
	}

	shared := result.(*domain.User)
	clone := *shared
	clone.Addresses = nil
	return &clone, nil
}

// LoadAddresses delegates to the DB repository.
func (r *CachedUserRepository) LoadAddresses(ctx context.Context, u *domain.User) error {
	return r.dbRepo.LoadAddresses(ctx, u)
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) error {
	err := r.dbRepo.Update(ctx, u)
	// A stale version means the cached row may be stale too.
	if err != nil && !errors.Is(err, domain.ErrStaleVersion) {
		return err
	}

	r.invalidate(ctx, u.ID, "update")
	return err
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, id, "delete")
	return nil
}

// Search delegates to the DB repository.
func (r *CachedUserRepository) Search(ctx context.Context, q criteria.Query, page, limit int64) ([]*domain.User, int64, error) {
	return r.dbRepo.Search(ctx, q, page, limit)
}

// GetAddressByID delegates to the DB repository.
func (r *CachedUserRepository) GetAddressByID(ctx context.Context, id int64) (*domain.Address, error) {
	return r.dbRepo.GetAddressByID(ctx, id)
}

// LoadOwner resolves the owner through the cache.
func (r *CachedUserRepository) LoadOwner(ctx context.Context, a *domain.Address) error {
	if a == nil {
		return errors.New("address cannot be nil")
	}

	owner, err := r.GetByID(ctx, a.UserID)
	if err != nil {
		return err
	}
	a.User = owner
	return nil
}

// UpdateAddress delegates to the DB repository. The cached owner does not
// carry addresses, so nothing is invalidated.
func (r *CachedUserRepository) UpdateAddress(ctx context.Context, a *domain.Address) error {
	return r.dbRepo.UpdateAddress(ctx, a)
}

// DeleteAddress delegates to the DB repository.
func (r *CachedUserRepository) DeleteAddress(ctx context.Context, id int64) error {
	return r.dbRepo.DeleteAddress(ctx, id)
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int64, op string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
	}
}
