package user

// AddressInput holds the free-text lines of an address.
type AddressInput struct {
	Line1 string `validate:"required,max=255"`
	Line2 string `validate:"max=255"`
	Line3 string `validate:"max=255"`
}

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Username  string         `validate:"required,min=3,max=100"`
	Addresses []AddressInput `validate:"dive"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID         int64
	Version    int
	AddressIDs []int64
}

// UpdateUserRequest represents the request payload for updating an existing user.
// Version must match the stored version.
type UpdateUserRequest struct {
	ID       int64  `validate:"required,gt=0"`
	Version  int    `validate:"gte=0"`
	Username string `validate:"required,min=3,max=100"`
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	ID      int64
	Version int
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID            int64
	WithAddresses bool
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User
}

// SearchUsersRequest represents the request payload for a LIKE search over one
// user property. Property defaults to username.
type SearchUsersRequest struct {
	Property string
	Query    string
	Page     int64
	Limit    int64
}

// SearchUsersResponse represents the response payload for user search.
type SearchUsersResponse struct {
	Users      []User
	Pagination *Pagination
}

// AddAddressRequest represents the request payload for attaching an address to a user.
type AddAddressRequest struct {
	UserID int64 `validate:"required,gt=0"`
	AddressInput
}

// AddAddressResponse represents the response payload after adding an address.
type AddAddressResponse struct {
	ID          int64
	UserID      int64
	UserVersion int
}

// UpdateAddressRequest represents the request payload for updating an address.
type UpdateAddressRequest struct {
	ID      int64 `validate:"required,gt=0"`
	Version int   `validate:"gte=0"`
	AddressInput
}

// UpdateAddressResponse represents the response payload after updating an address.
type UpdateAddressResponse struct {
	ID      int64
	Version int
}

// DeleteAddressRequest represents the request payload for deleting an address.
type DeleteAddressRequest struct {
	ID int64
}

// DeleteAddressResponse represents the response payload after deleting an address.
type DeleteAddressResponse struct {
	ID int64
}

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64
	Page       int64
	Limit      int64
	TotalPages int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
// Addresses is nil when the collection was not requested.
type User struct {
	ID        int64
	Version   int
	Username  string
	Addresses []Address
}

// Address represents an address DTO.
type Address struct {
	ID      int64
	Version int
	UserID  int64
	Line1   string
	Line2   string
	Line3   string
}
