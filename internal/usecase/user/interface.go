package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
	GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error)
	SearchUsers(ctx context.Context, in SearchUsersRequest) (*SearchUsersResponse, error)
	AddAddress(ctx context.Context, in AddAddressRequest) (*AddAddressResponse, error)
	UpdateAddress(ctx context.Context, in UpdateAddressRequest) (*UpdateAddressResponse, error)
	DeleteAddress(ctx context.Context, in DeleteAddressRequest) (*DeleteAddressResponse, error)
}
