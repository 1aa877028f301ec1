package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/field-ops/support-desk/internal/domain"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

func user(role domain.Role, entityID string, kind domain.EntityKind) *domain.User {
	return &domain.User{
		ID:           "user-" + string(role),
		Role:         role,
		AssignedTo:   entityID,
		AssignedKind: kind,
		Active:       true,
	}
}

func TestRequireRole(t *testing.T) {
	admin := user(domain.RoleAdmin, "d1", domain.EntityKindDepartment)
	regular := user(domain.RoleUser, "d1", domain.EntityKindDepartment)
	super := user(domain.RoleSuperadmin, "d1", domain.EntityKindDepartment)

	require.NoError(t, RequireRole(admin, domain.RoleAdmin))
	require.NoError(t, RequireRole(regular, domain.RoleUser, domain.RoleAdmin))

	err := RequireRole(regular, domain.RoleAdmin)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	// Superadmin passes any role requirement.
	require.NoError(t, RequireRole(super, domain.RoleAdmin))
	require.NoError(t, RequireRole(super))

	require.Error(t, RequireRole(nil, domain.RoleAdmin))
}

func TestRequireCreatorIgnoresRole(t *testing.T) {
	creator := user(domain.RoleUser, "loc1", domain.EntityKindLocation)
	super := user(domain.RoleSuperadmin, "d1", domain.EntityKindDepartment)
	ticket := &domain.Ticket{ID: "t1", CreatedBy: creator.ID}

	require.NoError(t, RequireCreator(creator, ticket))

	// Ownership is not bypassed by superadmin.
	err := RequireCreator(super, ticket)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestRequireAssignee(t *testing.T) {
	ticket := &domain.Ticket{
		ID:           "t1",
		AssignedTo:   "dept-it",
		AssignedKind: domain.EntityKindDepartment,
	}

	member := user(domain.RoleAdmin, "dept-it", domain.EntityKindDepartment)
	outsider := user(domain.RoleAdmin, "dept-ops", domain.EntityKindDepartment)
	sameIDOtherKind := user(domain.RoleAdmin, "dept-it", domain.EntityKindLocation)
	super := user(domain.RoleSuperadmin, "dept-ops", domain.EntityKindDepartment)

	require.NoError(t, RequireAssignee(member, ticket))
	require.Error(t, RequireAssignee(outsider, ticket))
	require.Error(t, RequireAssignee(sameIDOtherKind, ticket))
	require.Error(t, RequireAssignee(super, ticket))
}

func TestRequireParticipant(t *testing.T) {
	ticket := &domain.Ticket{
		ID:           "t1",
		CreatedBy:    "creator",
		AssignedTo:   "loc-7",
		AssignedKind: domain.EntityKindLocation,
	}

	creator := &domain.User{ID: "creator", Role: domain.RoleUser, AssignedTo: "d9", AssignedKind: domain.EntityKindDepartment}
	member := user(domain.RoleUser, "loc-7", domain.EntityKindLocation)
	stranger := user(domain.RoleUser, "loc-8", domain.EntityKindLocation)
	superStranger := user(domain.RoleSuperadmin, "loc-8", domain.EntityKindLocation)

	require.NoError(t, RequireParticipant(creator, ticket))
	require.NoError(t, RequireParticipant(member, ticket))
	require.Error(t, RequireParticipant(stranger, ticket))
	require.Error(t, RequireParticipant(superStranger, ticket))
}

func TestRequireMember(t *testing.T) {
	member := user(domain.RoleUser, "loc-1", domain.EntityKindLocation)

	require.NoError(t, RequireMember(member, "loc-1", domain.EntityKindLocation))
	require.Error(t, RequireMember(member, "loc-2", domain.EntityKindLocation))
	require.Error(t, RequireMember(member, "loc-1", domain.EntityKindDepartment))
	require.Error(t, RequireMember(nil, "loc-1", domain.EntityKindLocation))
}
