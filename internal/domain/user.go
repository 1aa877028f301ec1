package domain

import "time"

// Role enumerates subject roles.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// User is an authenticated actor. Every user is assigned to exactly one
// entity: a department or a location, discriminated by AssignedKind.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	AssignedTo   string
	AssignedKind EntityKind
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MemberOf reports whether the user belongs to the given entity.
func (u *User) MemberOf(entityID string, kind EntityKind) bool {
	return u.AssignedTo == entityID && u.AssignedKind == kind
}
