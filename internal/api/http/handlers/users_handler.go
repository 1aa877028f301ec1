package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/field-ops/support-desk/internal/api/dto"
	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/service"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// UsersHandler manages authentication and account endpoints.
type UsersHandler struct {
	authService *service.AuthService
	directory   *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, directory *service.DirectoryService) *UsersHandler {
	return &UsersHandler{authService: authService, directory: directory}
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	}})
}

// Me GET /auth/verify. Returns the authenticated user's profile.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": userResponse(subject)})
}

// CreateUser POST /users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.directory.CreateUser(c.Context(), subject, service.UserCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		AssignedTo:   req.AssignedTo,
		AssignedKind: req.AssignedKind,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateUser PATCH /users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.directory.UpdateUser(c.Context(), subject, c.Params("id"), service.UserUpdateInput{
		Name:         req.Name,
		Password:     req.Password,
		Role:         req.Role,
		AssignedTo:   req.AssignedTo,
		AssignedKind: req.AssignedKind,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	user, err := h.directory.GetUser(c.Context(), subject, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	users, err := h.directory.ListUsers(c.Context(), subject)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeactivateUser DELETE /users/:id.
func (h *UsersHandler) DeactivateUser(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.directory.DeactivateUser(c.Context(), subject, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deactivated": true}})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		AssignedTo:   user.AssignedTo,
		AssignedKind: user.AssignedKind,
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
	}
}
