package dto

import (
	"time"

	"github.com/field-ops/support-desk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse contains the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	Role         domain.Role       `json:"role"`
	AssignedTo   string            `json:"assigned_to"`
	AssignedKind domain.EntityKind `json:"assigned_kind"`
}

// UpdateUserRequest payload. Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Name         *string            `json:"name"`
	Password     *string            `json:"password"`
	Role         *domain.Role       `json:"role"`
	AssignedTo   *string            `json:"assigned_to"`
	AssignedKind *domain.EntityKind `json:"assigned_kind"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Role         domain.Role       `json:"role"`
	AssignedTo   string            `json:"assigned_to"`
	AssignedKind domain.EntityKind `json:"assigned_kind"`
	Active       bool              `json:"active"`
	CreatedAt    time.Time         `json:"created_at"`
}
