package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"user-address-service/internal/criteria"
	domain "user-address-service/internal/domain/user"
	apperrors "user-address-service/pkg/errors"
	"user-address-service/pkg/security"
)

const (
	defaultSearchProperty = "username"
	defaultPageLimit      = 10
	maxPageLimit          = 100
)

// Repository defines the interface for user data access operations.
// Implementations cascade user writes to the loaded address collection and
// enforce optimistic locking through the Version fields.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error                                               // Insert a user and its addresses
	GetByID(ctx context.Context, id int64) (*domain.User, error)                                    // Retrieve user by ID, addresses not loaded
	LoadAddresses(ctx context.Context, u *domain.User) error                                        // Load the address collection
	Update(ctx context.Context, u *domain.User) error                                               // Versioned update, cascades to addresses
	Delete(ctx context.Context, id int64) error                                                     // Delete user and its addresses
	Search(ctx context.Context, q criteria.Query, page, limit int64) ([]*domain.User, int64, error) // LIKE search with pagination
	GetAddressByID(ctx context.Context, id int64) (*domain.Address, error)                          // Retrieve address by ID, owner not loaded
	LoadOwner(ctx context.Context, a *domain.Address) error                                         // Load the owning user
	UpdateAddress(ctx context.Context, a *domain.Address) error                                     // Versioned update of one address
	DeleteAddress(ctx context.Context, id int64) error                                              // Delete one address
}

// Service implements Usecase on top of a Repository.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a validation error.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("", err.Error())
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		case "gt", "gte":
			messages = append(messages, fmt.Sprintf("%s must be %s %s", e.Field(), e.Tag(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError("", strings.Join(messages, ", "))
}

// translateError maps repository errors onto application errors.
func translateError(resource string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NewNotFoundError(resource, err.Error())
	case errors.Is(err, domain.ErrStaleVersion):
		return apperrors.NewConflictError(resource, fmt.Sprintf("%s was modified concurrently, reload and retry", resource))
	case errors.Is(err, criteria.ErrInvalidProperty), errors.Is(err, criteria.ErrEmptyValue):
		return apperrors.NewValidationError("property", err.Error())
	default:
		return apperrors.NewInternalError(fmt.Sprintf("%s operation failed", resource), err)
	}
}

func invalidID(resource string) error {
	return apperrors.NewValidationError("id", fmt.Sprintf("invalid %s id", resource))
}

// CreateUser creates a new user and its initial addresses.
func (uc *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	uc.log.Info("creating user", zap.String("username", in.Username), zap.Int("addresses", len(in.Addresses)))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u := &domain.User{Username: in.Username}
	for _, a := range in.Addresses {
		u.AddAddress(&domain.Address{Line1: a.Line1, Line2: a.Line2, Line3: a.Line3})
	}

	if err := uc.repo.Create(ctx, u); err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, translateError("user", err)
	}

	ids := make([]int64, len(u.Addresses))
	for i, a := range u.Addresses {
		ids[i] = a.ID
	}
	return &CreateUserResponse{ID: u.ID, Version: u.Version, AddressIDs: ids}, nil
}

// UpdateUser renames a user. The request version must match the stored one.
func (uc *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	uc.log.Info("updating user", zap.Int64("id", in.ID), zap.Int("version", in.Version), zap.String("username", in.Username))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	// Addresses stay unloaded so the cascade has nothing to rewrite.
	u := &domain.User{ID: in.ID, Version: in.Version, Username: in.Username}
	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Warn("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, translateError("user", err)
	}

	return &UpdateUserResponse{ID: u.ID, Version: u.Version}, nil
}

// DeleteUser deletes a user and, by cascade, its addresses.
func (uc *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	uc.log.Info("deleting user", zap.Int64("id", in.ID))

	if in.ID <= 0 {
		uc.log.Warn("delete user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, invalidID("user")
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, translateError("user", err)
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID, optionally with its addresses.
func (uc *Service) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	if in.ID <= 0 {
		uc.log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, invalidID("user")
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		uc.log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, translateError("user", err)
	}

	if in.WithAddresses {
		if err := uc.repo.LoadAddresses(ctx, u); err != nil {
			uc.log.Error("failed to load addresses", zap.Int64("id", in.ID), zap.Error(err))
			return nil, translateError("user", err)
		}
	}

	return &GetUserResponse{User: toUserDTO(u)}, nil
}

// SearchUsers runs a LIKE search over one user property with pagination.
// The query is matched as a substring; wildcards in it are taken literally.
func (uc *Service) SearchUsers(ctx context.Context, in SearchUsersRequest) (*SearchUsersResponse, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = defaultPageLimit
	}
	if in.Limit > maxPageLimit {
		in.Limit = maxPageLimit
	}
	if in.Property == "" {
		in.Property = defaultSearchProperty
	}

	uc.log.Info("searching users", zap.String("property", in.Property), zap.String("query", in.Query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit))

	if err := security.ValidatePropertyName(in.Property); err != nil {
		uc.log.Warn("invalid search property", zap.String("property", in.Property))
		return nil, apperrors.NewValidationError("property", err.Error())
	}
	query, err := security.ValidateSearchQuery(in.Query)
	if err != nil {
		uc.log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		return nil, apperrors.NewValidationError("query", fmt.Sprintf("invalid search query: %v", err))
	}

	users, total, err := uc.repo.Search(ctx, criteria.Like(in.Property, criteria.ContainsPattern(query)), in.Page, in.Limit)
	if err != nil {
		uc.log.Warn("failed to search users", zap.String("property", in.Property), zap.Error(err))
		return nil, translateError("user", err)
	}

	out := make([]User, len(users))
	for i, u := range users {
		out[i] = toUserDTO(u)
	}

	p := domain.NewPagination(total, in.Page, in.Limit)
	return &SearchUsersResponse{
		Users: out,
		Pagination: &Pagination{
			Total:      p.Total,
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: p.TotalPages,
		},
	}, nil
}

// AddAddress attaches a new address to an existing user. The insert cascades
// from the user, so the user's version is incremented too.
func (uc *Service) AddAddress(ctx context.Context, in AddAddressRequest) (*AddAddressResponse, error) {
	uc.log.Info("adding address", zap.Int64("user_id", in.UserID))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.repo.GetByID(ctx, in.UserID)
	if err != nil {
		uc.log.Warn("failed to get address owner", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, translateError("user", err)
	}

	// The collection is not loaded, so only the new address is cascaded.
	a := &domain.Address{Line1: in.Line1, Line2: in.Line2, Line3: in.Line3}
	u.AddAddress(a)

	if err := uc.repo.Update(ctx, u); err != nil {
		uc.log.Error("failed to add address", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, translateError("user", err)
	}

	return &AddAddressResponse{ID: a.ID, UserID: u.ID, UserVersion: u.Version}, nil
}

// UpdateAddress rewrites the lines of an address. The request version must
// match the stored one. The owner is not modified.
func (uc *Service) UpdateAddress(ctx context.Context, in UpdateAddressRequest) (*UpdateAddressResponse, error) {
	uc.log.Info("updating address", zap.Int64("id", in.ID), zap.Int("version", in.Version))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	a, err := uc.repo.GetAddressByID(ctx, in.ID)
	if err != nil {
		uc.log.Warn("failed to get address", zap.Int64("id", in.ID), zap.Error(err))
		return nil, translateError("address", err)
	}

	a.Version = in.Version
	a.Line1, a.Line2, a.Line3 = in.Line1, in.Line2, in.Line3

	if err := uc.repo.UpdateAddress(ctx, a); err != nil {
		uc.log.Warn("failed to update address", zap.Int64("id", in.ID), zap.Error(err))
		return nil, translateError("address", err)
	}

	return &UpdateAddressResponse{ID: a.ID, Version: a.Version}, nil
}

// DeleteAddress deletes a single address.
func (uc *Service) DeleteAddress(ctx context.Context, in DeleteAddressRequest) (*DeleteAddressResponse, error) {
	uc.log.Info("deleting address", zap.Int64("id", in.ID))

	if in.ID <= 0 {
		return nil, invalidID("address")
	}

	if err := uc.repo.DeleteAddress(ctx, in.ID); err != nil {
		uc.log.Error("failed to delete address", zap.Int64("id", in.ID), zap.Error(err))
		return nil, translateError("address", err)
	}

	return &DeleteAddressResponse{ID: in.ID}, nil
}

func toUserDTO(u *domain.User) User {
	out := User{
		ID:       u.ID,
		Version:  u.Version,
		Username: u.Username,
	}
	if u.Addresses != nil {
		out.Addresses = make([]Address, len(u.Addresses))
		for i, a := range u.Addresses {
			out.Addresses[i] = Address{
				ID:      a.ID,
				Version: a.Version,
				UserID:  a.UserID,
				Line1:   a.Line1,
				Line2:   a.Line2,
				Line3:   a.Line3,
			}
		}
	}
	return out
}
