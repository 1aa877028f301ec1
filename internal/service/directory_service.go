package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/config"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/repository"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// DirectoryService manages the org chart: departments, locations and the
// user accounts assigned to them.
type DirectoryService struct {
	entities repository.EntityRepository
	users    repository.UserRepository
	cfg      config.Config
	logger   *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(cfg config.Config, entities repository.EntityRepository, users repository.UserRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		entities: entities,
		users:    users,
		cfg:      cfg,
		logger:   logger,
	}
}

// UserCreateInput carries a new account's fields.
type UserCreateInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.Role
	AssignedTo   string
	AssignedKind domain.EntityKind
}

// UserUpdateInput carries optional account changes. Nil fields stay as-is.
type UserUpdateInput struct {
	Name         *string
	Password     *string
	Role         *domain.Role
	AssignedTo   *string
	AssignedKind *domain.EntityKind
}

// CreateDepartment registers a department. Admin only.
func (s *DirectoryService) CreateDepartment(ctx context.Context, subject *domain.User, name string) (*domain.Department, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("department name is required", nil)
	}
	if existing, err := s.entities.GetDepartmentByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
	}
	dept := &domain.Department{Name: name}
	if err := s.entities.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// CreateLocation registers a location. Admin only.
func (s *DirectoryService) CreateLocation(ctx context.Context, subject *domain.User, name string) (*domain.Location, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("location name is required", nil)
	}
	if existing, err := s.entities.GetLocationByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("location already exists", map[string]any{"name": name})
	}
	loc := &domain.Location{Name: name}
	if err := s.entities.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// ListDepartments returns all departments.
func (s *DirectoryService) ListDepartments(ctx context.Context, subject *domain.User) ([]domain.Department, error) {
	if err := auth.RequireRole(subject, domain.RoleUser, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.entities.ListDepartments(ctx)
}

// ListLocations returns all locations.
func (s *DirectoryService) ListLocations(ctx context.Context, subject *domain.User) ([]domain.Location, error) {
	if err := auth.RequireRole(subject, domain.RoleUser, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.entities.ListLocations(ctx)
}

// CreateUser registers an account. Admins may create users; only a
// superadmin may grant the admin or superadmin role.
func (s *DirectoryService) CreateUser(ctx context.Context, subject *domain.User, input UserCreateInput) (*domain.User, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if input.Role != domain.RoleUser {
		if err := auth.RequireRole(subject, domain.RoleSuperadmin); err != nil {
			return nil, apperrors.NewForbidden("only a superadmin may grant elevated roles")
		}
	}
	if err := validateUserInput(input); err != nil {
		return nil, err
	}
	if _, err := s.entities.Resolve(ctx, input.AssignedKind, input.AssignedTo); err != nil {
		return nil, apperrors.NewValidationError("assigned entity does not exist", map[string]any{
			"assigned_to":   input.AssignedTo,
			"assigned_kind": input.AssignedKind,
		})
	}
	if existing, err := s.users.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		AssignedTo:   input.AssignedTo,
		AssignedKind: input.AssignedKind,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies partial changes to an account. Admin only; role
// changes need a superadmin.
func (s *DirectoryService) UpdateUser(ctx context.Context, subject *domain.User, userID string, input UserUpdateInput) (*domain.User, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.cfg.Auth.BcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		if err := auth.RequireRole(subject, domain.RoleSuperadmin); err != nil {
			return nil, apperrors.NewForbidden("only a superadmin may change roles")
		}
		user.Role = *input.Role
	}
	if input.AssignedTo != nil || input.AssignedKind != nil {
		if input.AssignedTo == nil || input.AssignedKind == nil {
			return nil, apperrors.NewValidationError("assigned_to and assigned_kind must be set together", nil)
		}
		if _, err := s.entities.Resolve(ctx, *input.AssignedKind, *input.AssignedTo); err != nil {
			return nil, apperrors.NewValidationError("assigned entity does not exist", nil)
		}
		user.AssignedTo = *input.AssignedTo
		user.AssignedKind = *input.AssignedKind
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns one account: the subject's own, or any for an admin.
func (s *DirectoryService) GetUser(ctx context.Context, subject *domain.User, userID string) (*domain.User, error) {
	if subject == nil {
		return nil, apperrors.NewForbidden("subject required")
	}
	if subject.ID != userID {
		if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, userID)
}

// ListUsers returns all accounts, deactivated ones included. Admin only.
func (s *DirectoryService) ListUsers(ctx context.Context, subject *domain.User) ([]domain.User, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// DeactivateUser soft-deletes an account. The email is defaced so the
// address can be reused while the row stays referable from tickets.
func (s *DirectoryService) DeactivateUser(ctx context.Context, subject *domain.User, userID string) error {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return err
	}
	if subject.ID == userID {
		return apperrors.NewValidationError("cannot deactivate your own account", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Active = false
	user.Email = fmt.Sprintf("deleted+%s+%s", user.ID, user.Email)
	return s.users.Update(ctx, user)
}

// Bootstrap seeds the head-office department and the two initial admin
// accounts. Every step is idempotent, so it is safe on each startup.
func (s *DirectoryService) Bootstrap(ctx context.Context) error {
	if !s.cfg.Seed.Enabled {
		return nil
	}

	headOffice, err := s.ensureDepartment(ctx, s.cfg.Seed.HeadOffice)
	if err != nil {
		return fmt.Errorf("seed head office: %w", err)
	}
	itDept, err := s.ensureDepartment(ctx, s.cfg.Report.ITDepartment)
	if err != nil {
		return fmt.Errorf("seed it department: %w", err)
	}

	if err := s.ensureUser(ctx, seedUser{
		name:     s.cfg.Seed.SuperadminName,
		email:    s.cfg.Seed.SuperadminEmail,
		password: s.cfg.Seed.SuperadminPass,
		role:     domain.RoleSuperadmin,
		entityID: headOffice.ID,
	}); err != nil {
		return fmt.Errorf("seed superadmin: %w", err)
	}
	if err := s.ensureUser(ctx, seedUser{
		name:     s.cfg.Seed.ITAdminName,
		email:    s.cfg.Seed.ITAdminEmail,
		password: s.cfg.Seed.ITAdminPass,
		role:     domain.RoleAdmin,
		entityID: itDept.ID,
	}); err != nil {
		return fmt.Errorf("seed it admin: %w", err)
	}
	return nil
}

type seedUser struct {
	name     string
	email    string
	password string
	role     domain.Role
	entityID string
}

func (s *DirectoryService) ensureDepartment(ctx context.Context, name string) (*domain.Department, error) {
	if dept, err := s.entities.GetDepartmentByName(ctx, name); err == nil {
		return dept, nil
	}
	dept := &domain.Department{Name: name}
	if err := s.entities.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}
	s.logger.Info("seeded department", zap.String("name", name))
	return dept, nil
}

func (s *DirectoryService) ensureUser(ctx context.Context, seed seedUser) error {
	if _, err := s.users.GetByEmail(ctx, seed.email); err == nil {
		return nil
	}
	if seed.password == "" {
		s.logger.Warn("skipping seed user, no password configured", zap.String("email", seed.email))
		return nil
	}
	hash, err := auth.HashPassword(seed.password, s.cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	user := &domain.User{
		Name:         seed.name,
		Email:        strings.ToLower(seed.email),
		PasswordHash: hash,
		Role:         seed.role,
		AssignedTo:   seed.entityID,
		AssignedKind: domain.EntityKindDepartment,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("seeded user", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	return nil
}

func validateUserInput(input UserCreateInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "a valid email is required"
	}
	if len(input.Password) < 8 {
		details["password"] = "must be at least 8 characters"
	}
	if !input.AssignedKind.Valid() {
		details["assigned_kind"] = "must be DEPARTMENT or LOCATION"
	}
	if input.AssignedTo == "" {
		details["assigned_to"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid user payload", details)
	}
	return nil
}
