package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/field-ops/support-desk/internal/config"
	"github.com/field-ops/support-desk/internal/domain"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

func directoryConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{BcryptCost: 4},
		Report: config.ReportConfig{
			ITDepartment: "IT Department",
		},
		Seed: config.SeedConfig{
			Enabled:         true,
			HeadOffice:      "Head Office Administration",
			SuperadminName:  "Super Admin",
			SuperadminEmail: "superadmin@example.com",
			SuperadminPass:  "change-me-please",
			ITAdminName:     "IT Admin",
			ITAdminEmail:    "it@example.com",
			ITAdminPass:     "change-me-too",
		},
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	entities := newMemEntityRepo()
	users := newMemUserRepo()
	svc := NewDirectoryService(directoryConfig(), entities, users, zap.NewNop())

	require.NoError(t, svc.Bootstrap(ctx))
	require.NoError(t, svc.Bootstrap(ctx))

	depts, err := entities.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 2)

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	super, err := users.GetByEmail(ctx, "superadmin@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleSuperadmin, super.Role)
	require.NotEqual(t, "change-me-please", super.PasswordHash)

	itAdmin, err := users.GetByEmail(ctx, "it@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, itAdmin.Role)
	require.Equal(t, domain.EntityKindDepartment, itAdmin.AssignedKind)
}

func TestCreateUserRoleRules(t *testing.T) {
	ctx := context.Background()
	entities := newMemEntityRepo()
	users := newMemUserRepo()
	svc := NewDirectoryService(directoryConfig(), entities, users, zap.NewNop())

	dept := &domain.Department{Name: "Operations Department"}
	require.NoError(t, entities.CreateDepartment(ctx, dept))

	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin, AssignedTo: dept.ID, AssignedKind: domain.EntityKindDepartment}
	super := &domain.User{ID: "s1", Role: domain.RoleSuperadmin, AssignedTo: dept.ID, AssignedKind: domain.EntityKindDepartment}

	input := UserCreateInput{
		Name:         "Field User",
		Email:        "Field.User@Example.com",
		Password:     "long-enough-pass",
		AssignedTo:   dept.ID,
		AssignedKind: domain.EntityKindDepartment,
	}

	created, err := svc.CreateUser(ctx, admin, input)
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, created.Role)
	require.Equal(t, strings.ToLower(input.Email), created.Email)

	// An admin cannot mint another admin.
	input.Email = "second@example.com"
	input.Role = domain.RoleAdmin
	_, err = svc.CreateUser(ctx, admin, input)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = svc.CreateUser(ctx, super, input)
	require.NoError(t, err)

	// Duplicate email conflicts.
	_, err = svc.CreateUser(ctx, super, input)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	entities := newMemEntityRepo()
	users := newMemUserRepo()
	svc := NewDirectoryService(directoryConfig(), entities, users, zap.NewNop())

	dept := &domain.Department{Name: "Operations Department"}
	require.NoError(t, entities.CreateDepartment(ctx, dept))
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin, AssignedTo: dept.ID, AssignedKind: domain.EntityKindDepartment}

	_, err := svc.CreateUser(ctx, admin, UserCreateInput{
		Name:         "",
		Email:        "not-an-email",
		Password:     "short",
		AssignedTo:   dept.ID,
		AssignedKind: domain.EntityKindDepartment,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.CreateUser(ctx, admin, UserCreateInput{
		Name:         "Someone",
		Email:        "someone@example.com",
		Password:     "long-enough-pass",
		AssignedTo:   "ghost",
		AssignedKind: domain.EntityKindDepartment,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestDeactivateUser(t *testing.T) {
	ctx := context.Background()
	entities := newMemEntityRepo()
	users := newMemUserRepo()
	svc := NewDirectoryService(directoryConfig(), entities, users, zap.NewNop())

	dept := &domain.Department{Name: "Operations Department"}
	require.NoError(t, entities.CreateDepartment(ctx, dept))
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin, AssignedTo: dept.ID, AssignedKind: domain.EntityKindDepartment}

	created, err := svc.CreateUser(ctx, admin, UserCreateInput{
		Name:         "Field User",
		Email:        "field@example.com",
		Password:     "long-enough-pass",
		AssignedTo:   dept.ID,
		AssignedKind: domain.EntityKindDepartment,
	})
	require.NoError(t, err)

	require.Error(t, svc.DeactivateUser(ctx, admin, "a1"))

	require.NoError(t, svc.DeactivateUser(ctx, admin, created.ID))

	// The account disappears from active lookups and its email is freed.
	_, err = users.GetByID(ctx, created.ID)
	require.Error(t, err)
	_, err = users.GetByEmail(ctx, "field@example.com")
	require.Error(t, err)

	_, err = svc.CreateUser(ctx, admin, UserCreateInput{
		Name:         "Replacement",
		Email:        "field@example.com",
		Password:     "long-enough-pass",
		AssignedTo:   dept.ID,
		AssignedKind: domain.EntityKindDepartment,
	})
	require.NoError(t, err)
}

func TestCreateEntityRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	entities := newMemEntityRepo()
	users := newMemUserRepo()
	svc := NewDirectoryService(directoryConfig(), entities, users, zap.NewNop())

	regular := &domain.User{ID: "u1", Role: domain.RoleUser, AssignedTo: "x", AssignedKind: domain.EntityKindLocation}
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin, AssignedTo: "x", AssignedKind: domain.EntityKindDepartment}

	_, err := svc.CreateDepartment(ctx, regular, "Finance")
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	dept, err := svc.CreateDepartment(ctx, admin, "Finance")
	require.NoError(t, err)
	require.NotEmpty(t, dept.ID)

	_, err = svc.CreateDepartment(ctx, admin, "Finance")
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	loc, err := svc.CreateLocation(ctx, admin, "West Market")
	require.NoError(t, err)
	require.NotEmpty(t, loc.ID)
}
