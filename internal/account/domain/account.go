package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrInvalidAccount wraps every validation failure so the boundary can map the
// whole family to one outcome with errors.Is.
var ErrInvalidAccount = errors.New("invalid account")

// Role is the authorization level gating access to admin-only operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Toggled returns the other role: admin for user, user for admin.
func (r Role) Toggled() Role {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

// Account is a registered identity with a role. ID is immutable; role is
// mutated only through the admin service.
type Account struct {
	ID        string
	Name      string
	Username  string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the account for persistence and defaults the role to
// user. Returns an ErrInvalidAccount-wrapped error describing the first
// validation failure.
func (a *Account) Validate() error {
	if n := utf8.RuneCountInString(a.Name); n < 1 || n > 20 {
		return fmt.Errorf("%w: name must be 1-20 characters", ErrInvalidAccount)
	}
	if n := utf8.RuneCountInString(a.Username); n < 3 || n > 10 {
		return fmt.Errorf("%w: username must be 3-10 characters", ErrInvalidAccount)
	}
	if a.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidAccount)
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, a.Role)
	}
	return nil
}
