package domain

import (
	"context"
	"slices"
	"strings"
)

// Role is a closed set of capability tiers.
type Role string

// Supported roles.
const (
	RoleAdmin    Role = "ADMIN"
	RoleStandard Role = "STANDARD"
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = &AppError{Code: CodeNotFound, Label: "User not found", Message: "The requested user does not exist"}

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleStandard}

// RoleNames lists every valid role as a string.
var RoleNames = []string{string(RoleAdmin), string(RoleStandard)}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// In reports whether r is a member of accepted.
func (r Role) In(accepted ...Role) bool {
	return slices.Contains(accepted, r)
}

// User represents an account that can authenticate against the API.
type User struct {
	BaseModel
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         Role   `gorm:"size:20;not null;default:STANDARD;index" json:"role"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PrincipalStore resolves principals referenced by credentials.
type PrincipalStore interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
