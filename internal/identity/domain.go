package identity

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("identity: not found")

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("identity: invalid credentials")

// Role is the closed set of privilege tiers. Lower ordinal means higher
// privilege; rank comparison is a single integer comparison.
type Role int

// Role ordinals are fixed reference data and never change at runtime.
const (
	RoleSuperAdmin Role = 1
	RoleAdmin      Role = 2
	RoleSuperUser  Role = 3
	RoleUser       Role = 4
)

var roleNames = map[Role]string{
	RoleSuperAdmin: "SuperAdmin",
	RoleAdmin:      "Admin",
	RoleSuperUser:  "SuperUser",
	RoleUser:       "User",
}

// String returns the canonical role name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Valid reports whether r is one of the four defined ranks.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Outranks reports whether r holds strictly higher privilege than other.
func (r Role) Outranks(other Role) bool {
	return r < other
}

// ParseRole resolves a stored role name into its rank.
func ParseRole(name string) (Role, error) {
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return 0, fmt.Errorf("identity: unknown role %q", name)
}

// User is a platform account. Accounts are never hard-deleted; IsActive and
// IsBanned gate them instead so activity references stay resolvable.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	GroupID      *int64
	IsActive     bool
	IsBanned     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Member reports whether the user belongs to the given group.
func (u User) Member(groupID int64) bool {
	return u.GroupID != nil && *u.GroupID == groupID
}

// Group is the tenant boundary: content and theming of one group are
// invisible to every other group.
type Group struct {
	ID            int64
	Name          string
	Slug          string
	OwnerID       *int64
	ActiveThemeID *int64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
