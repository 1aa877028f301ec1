package service

import (
	"context"
	"strings"
	"time"

	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/repository"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// AuthService issues tokens for valid credentials.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login verifies credentials and returns a signed token. Unknown emails
// and bad passwords produce the same error so the response does not leak
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Verify parses a token and loads its subject.
func (s *AuthService) Verify(ctx context.Context, tokenStr string) (*domain.User, error) {
	claims, err := s.tokens.ParseToken(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}
	user, err := s.users.GetByID(ctx, claims.SubjectID)
	if err != nil {
		return nil, apperrors.NewUnauthorized("account no longer active")
	}
	return user, nil
}
