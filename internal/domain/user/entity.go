package user

import (
	"fmt"
	"strings"
)

// User represents a user entity in the system.
// A user owns its addresses: persisting, updating or deleting a user
// cascades to every address in Addresses.
type User struct {
	ID        int64      // ID is the generated surrogate key, 0 until the user is persisted
	Version   int        // Version is the optimistic-lock counter
	Username  string     // Username is the login name of the user
	Addresses []*Address // Addresses is loaded lazily, nil means not loaded
}

// Address represents a postal address owned by a user.
type Address struct {
	ID      int64
	Version int
	UserID  int64
	// User is the owning user. It is not serialized, and operations on an
	// address never cascade to it.
	User  *User `json:"-"`
	Line1 string
	Line2 string
	Line3 string
}

// AddAddress attaches a to the user. The back-reference is set before the
// address joins the collection so both sides stay consistent.
func (u *User) AddAddress(a *Address) {
	if a == nil {
		return
	}
	a.User = u
	a.UserID = u.ID
	if u.HasAddress(a) {
		return
	}
	u.Addresses = append(u.Addresses, a)
}

// RemoveAddress detaches a from the user and clears its back-reference.
// It reports whether the address was part of the collection.
func (u *User) RemoveAddress(a *Address) bool {
	for i, existing := range u.Addresses {
		if existing != a {
			continue
		}
		u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
		a.User = nil
		return true
	}
	return false
}

// HasAddress reports whether a is in the address collection.
func (u *User) HasAddress(a *Address) bool {
	for _, existing := range u.Addresses {
		if existing == a {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for diagnostics.
func (u *User) String() string {
	addrs := make([]string, 0, len(u.Addresses))
	for _, a := range u.Addresses {
		addrs = append(addrs, a.String())
	}

	var sb strings.Builder
	sb.WriteString("User")
	fmt.Fprintf(&sb, "{id=%d", u.ID)
	fmt.Fprintf(&sb, ", version=%d", u.Version)
	fmt.Fprintf(&sb, ", username='%s'", u.Username)
	fmt.Fprintf(&sb, ", addresses=[%s]", strings.Join(addrs, ", "))
	sb.WriteByte('}')
	return sb.String()
}

// String implements fmt.Stringer. The owner is left out so printing a user
// does not recurse through the back-reference.
func (a *Address) String() string {
	if a == nil {
		return "<nil>"
	}

	var sb strings.Builder
	sb.WriteString("UserAddress")
	fmt.Fprintf(&sb, "{id=%d", a.ID)
	fmt.Fprintf(&sb, ", version=%d", a.Version)
	fmt.Fprintf(&sb, ", line1='%s'", a.Line1)
	fmt.Fprintf(&sb, ", line2='%s'", a.Line2)
	fmt.Fprintf(&sb, ", line3='%s'", a.Line3)
	sb.WriteByte('}')
	return sb.String()
}
