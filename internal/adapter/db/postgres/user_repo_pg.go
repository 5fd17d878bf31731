package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-address-service/internal/criteria"
	"user-address-service/internal/domain/user"
)

// UserRepoPG implements the Repository interface using GORM.
// Despite the name it runs on any gorm dialect; tests use sqlite.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// Create inserts a new user and cascades the insert to its addresses.
// Generated IDs are written back into u and its addresses.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	model := UserSchema{Username: u.Username}
	for _, a := range u.Addresses {
		model.Addresses = append(model.Addresses, fromAddressDomain(a, 0))
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("username", u.Username))
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = model.ID
	u.Version = model.Version
	for i, a := range u.Addresses {
		a.ID = model.Addresses[i].ID
		a.Version = model.Addresses[i].Version
		a.UserID = model.ID
		a.User = u
	}

	r.log.Info("user created in db", zap.Int64("id", u.ID), zap.Int("addresses", len(u.Addresses)))
	return nil
}

// Update writes u under its current version and cascades to every loaded
// address. New addresses are inserted. On success all versions in memory are
// incremented; on failure nothing in u is changed.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	var commit []func()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserSchema{}).
			Where("id = ? AND version = ?", u.ID, u.Version).
			Updates(map[string]any{
				"username": u.Username,
				"version":  gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, &UserSchema{}, "user", u.ID)
		}
		commit = append(commit, func() { u.Version++ })

		for _, a := range u.Addresses {
			apply, err := saveAddress(tx, a, u)
			if err != nil {
				return err
			}
			commit = append(commit, apply)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID), zap.Int("version", u.Version))
		return err
	}

	for _, apply := range commit {
		apply()
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID), zap.Int("version", u.Version))
	return nil
}

// saveAddress inserts or version-checks and updates a within tx. The returned
// func applies the in-memory changes once the transaction commits.
func saveAddress(tx *gorm.DB, a *user.Address, owner *user.User) (func(), error) {
	if a.ID == 0 {
		model := fromAddressDomain(a, owner.ID)
		if err := tx.Create(&model).Error; err != nil {
			return nil, fmt.Errorf("failed to create address: %w", err)
		}
		return func() {
			a.ID = model.ID
			a.Version = model.Version
			a.UserID = owner.ID
			a.User = owner
		}, nil
	}

	if err := updateAddress(tx, a, owner.ID); err != nil {
		return nil, err
	}
	return func() {
		a.Version++
		a.UserID = owner.ID
	}, nil
}

func updateAddress(tx *gorm.DB, a *user.Address, userID int64) error {
	res := tx.Model(&AddressSchema{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]any{
			"user_id": userID,
			"line1":   a.Line1,
			"line2":   a.Line2,
			"line3":   a.Line3,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return missingOrStale(tx, &AddressSchema{}, "address", a.ID)
	}
	return nil
}

// missingOrStale tells apart a deleted row from a concurrent update after a
// versioned update matched nothing.
func missingOrStale(tx *gorm.DB, model any, kind string, id int64) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: id=%d: %w", kind, id, user.ErrNotFound)
	}
	return fmt.Errorf("%s id=%d: %w", kind, id, user.ErrStaleVersion)
}

// Delete removes a user and cascades the delete to its addresses.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&AddressSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete user addresses: %w", err)
		}
		res := tx.Delete(&UserSchema{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user not found: id=%d: %w", id, user.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return err
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user by ID. Addresses are not loaded.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.Int64("id", id))
			return nil, fmt.Errorf("user not found: id=%d: %w", id, user.ErrNotFound)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserDomain(&model), nil
}

// LoadAddresses fetches the address collection of u and wires the
// back-references.
func (r *UserRepoPG) LoadAddresses(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	var models []AddressSchema
	if err := r.db.WithContext(ctx).Where("user_id = ?", u.ID).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to load addresses from db", zap.Error(err), zap.Int64("user_id", u.ID))
		return fmt.Errorf("failed to load addresses: %w", err)
	}

	u.Addresses = make([]*user.Address, 0, len(models))
	for i := range models {
		u.AddAddress(toAddressDomain(&models[i]))
	}
	return nil
}

// Search runs a LIKE criteria query over users and returns one page of
// results along with the total number of matches.
func (r *UserRepoPG) Search(ctx context.Context, q criteria.Query, page, limit int64) ([]*user.User, int64, error) {
	tq, err := criteria.GetQuery[UserSchema](q, r.db)
	if err != nil {
		r.log.Warn("invalid search criteria", zap.Error(err))
		return nil, 0, err
	}

	total, err := tq.Count(ctx)
	if err != nil {
		r.log.Error("failed to count users", zap.Error(err), zap.String("property", q.Property()))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	models, err := tq.OrderBy("id", false).Page(int(user.Offset(page, limit)), int(limit)).Find(ctx)
	if err != nil {
		r.log.Error("failed to search users", zap.Error(err), zap.String("property", q.Property()), zap.Int64("page", page), zap.Int64("limit", limit))
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}

	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = toUserDomain(&models[i])
	}
	return users, total, nil
}

// GetAddressByID retrieves an address. Its owner is a stub holding only the
// owner ID until LoadOwner is called.
func (r *UserRepoPG) GetAddressByID(ctx context.Context, id int64) (*user.Address, error) {
	var model AddressSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("address not found", zap.Int64("id", id))
			return nil, fmt.Errorf("address not found: id=%d: %w", id, user.ErrNotFound)
		}
		r.log.Error("failed to get address from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return toAddressDomain(&model), nil
}

// LoadOwner replaces the owner stub of a with the stored user.
func (r *UserRepoPG) LoadOwner(ctx context.Context, a *user.Address) error {
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

// UpdateAddress writes a single address under its current version. The
// owner is not touched.
func (r *UserRepoPG) UpdateAddress(ctx context.Context, a *user.Address) error {
	if a == nil {
		return errors.New("address cannot be nil")
	}

	if err := updateAddress(r.db.WithContext(ctx), a, a.UserID); err != nil {
		r.log.Error("failed to update address in db", zap.Error(err), zap.Int64("id", a.ID), zap.Int("version", a.Version))
		return err
	}
	a.Version++

	r.log.Info("address updated in db", zap.Int64("id", a.ID), zap.Int("version", a.Version))
	return nil
}

// DeleteAddress removes a single address.
func (r *UserRepoPG) DeleteAddress(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid address id")
	}

	res := r.db.WithContext(ctx).Delete(&AddressSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete address in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address not found: id=%d: %w", id, user.ErrNotFound)
	}

	r.log.Info("address deleted in db", zap.Int64("id", id))
	return nil
}
