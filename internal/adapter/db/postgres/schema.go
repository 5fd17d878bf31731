package postgres

import (
	"gorm.io/gorm"

	"user-address-service/internal/domain/user"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`                         // Generated surrogate key
	Version   int             `gorm:"not null;default:0"`                               // Optimistic-lock counter
	Username  string          `gorm:"not null;size:100;index"`                          // Login name
	Addresses []AddressSchema `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Owned addresses
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AddressSchema represents the database schema for the user_addresses table.
type AddressSchema struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	Version int    `gorm:"not null;default:0"`
	UserID  int64  `gorm:"not null;index"`
	Line1   string `gorm:"size:255"`
	Line2   string `gorm:"size:255"`
	Line3   string `gorm:"size:255"`
}

// TableName specifies the table name for the AddressSchema model.
func (AddressSchema) TableName() string {
	return "user_addresses"
}

// AutoMigrate creates or updates the tables backing the entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{}, &AddressSchema{})
}

func toUserDomain(m *UserSchema) *user.User {
	return &user.User{
		ID:       m.ID,
		Version:  m.Version,
		Username: m.Username,
	}
}

// toAddressDomain maps a row to an address. The owner is a stub carrying only
// its ID until LoadOwner is called.
func toAddressDomain(m *AddressSchema) *user.Address {
	return &user.Address{
		ID:      m.ID,
		Version: m.Version,
		UserID:  m.UserID,
		User:    &user.User{ID: m.UserID},
		Line1:   m.Line1,
		Line2:   m.Line2,
		Line3:   m.Line3,
	}
}

func fromAddressDomain(a *user.Address, userID int64) AddressSchema {
	return AddressSchema{
		ID:      a.ID,
		Version: a.Version,
		UserID:  userID,
		Line1:   a.Line1,
		Line2:   a.Line2,
		Line3:   a.Line3,
	}
}
