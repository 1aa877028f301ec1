package auth

import (
	"github.com/field-ops/support-desk/internal/domain"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// The guard evaluates (subject, operation, target) triples with two
// orthogonal checks: role membership and ownership/assignment match.
// Superadmin bypasses role membership only. Ownership is a business
// invariant, so no role — superadmin included — bypasses it.

// RequireRole checks role membership, with the superadmin bypass.
func RequireRole(subject *domain.User, allowed ...domain.Role) error {
	if subject == nil {
		return apperrors.NewForbidden("subject required")
	}
	if subject.Role == domain.RoleSuperadmin {
		return nil
	}
	for _, role := range allowed {
		if subject.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// RequireCreator checks that the subject created the ticket.
func RequireCreator(subject *domain.User, ticket *domain.Ticket) error {
	if subject == nil || ticket == nil {
		return apperrors.NewForbidden("subject required")
	}
	if ticket.CreatedBy != subject.ID {
		return apperrors.NewForbidden("only the ticket creator may perform this action")
	}
	return nil
}

// RequireAssignee checks that the subject belongs to the ticket's
// assigned entity.
func RequireAssignee(subject *domain.User, ticket *domain.Ticket) error {
	if subject == nil || ticket == nil {
		return apperrors.NewForbidden("subject required")
	}
	if !subject.MemberOf(ticket.AssignedTo, ticket.AssignedKind) {
		return apperrors.NewForbidden("only members of the assigned entity may perform this action")
	}
	return nil
}

// RequireParticipant checks that the subject is the ticket's creator or a
// member of its assigned entity. This is the view-authorization rule.
func RequireParticipant(subject *domain.User, ticket *domain.Ticket) error {
	if subject == nil || ticket == nil {
		return apperrors.NewForbidden("subject required")
	}
	if ticket.CreatedBy == subject.ID {
		return nil
	}
	if subject.MemberOf(ticket.AssignedTo, ticket.AssignedKind) {
		return nil
	}
	return apperrors.NewForbidden("not a participant of this ticket")
}

// RequireMember checks membership in an arbitrary entity.
func RequireMember(subject *domain.User, entityID string, kind domain.EntityKind) error {
	if subject == nil {
		return apperrors.NewForbidden("subject required")
	}
	if !subject.MemberOf(entityID, kind) {
		return apperrors.NewForbidden("not a member of this entity")
	}
	return nil
}
