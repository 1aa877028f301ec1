package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/events"
	"github.com/field-ops/support-desk/internal/repository"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// TicketService owns the ticket lifecycle state machine. Every mutation
// is guarded by role and ownership checks, validated against the current
// status, stamped with the injected clock, and persisted as a single
// read-validate-write step. Two concurrent writers on the same ticket
// race last-write-wins; there is no optimistic concurrency token.
type TicketService struct {
	tickets    repository.TicketRepository
	entities   repository.EntityRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	EntityRepo repository.EntityRepository
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	AssignedTo   string
	AssignedKind domain.EntityKind
	Images       []string
}

// ResolutionTimeInput describes the triage payload.
type ResolutionTimeInput struct {
	EstimatedResolutionTime time.Time
	Priority                domain.TicketPriority
}

// ReferralInput describes an ownership transfer.
type ReferralInput struct {
	AssignedTo   string
	AssignedKind domain.EntityKind
	Comment      string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		entities:   deps.EntityRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Create opens a new ticket assigned to a department or location.
func (s *TicketService) Create(ctx context.Context, subject *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.RequireRole(subject, domain.RoleUser, domain.RoleAdmin); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if !input.AssignedKind.Valid() {
		return nil, apperrors.NewValidationError("assigned_kind must be DEPARTMENT or LOCATION", nil)
	}
	if _, err := s.entities.Resolve(ctx, input.AssignedKind, input.AssignedTo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assigned entity does not exist", nil)
		}
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		Title:        title,
		Description:  description,
		AssignedTo:   input.AssignedTo,
		AssignedKind: input.AssignedKind,
		CreatedBy:    subject.ID,
		Priority:     domain.TicketPriorityLow,
		Status:       domain.TicketStatusOpen,
		Images:       input.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: subject.ID,
		Payload: events.TicketCreatedPayload{
			TicketID:     ticket.ID,
			AssignedTo:   ticket.AssignedTo,
			AssignedKind: ticket.AssignedKind,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// SetResolutionTime moves an open ticket to in-progress with an estimated
// resolution time and an optional priority.
func (s *TicketService) SetResolutionTime(ctx context.Context, subject *domain.User, ticketID string, input ResolutionTimeInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAssignee(subject, ticket); err != nil {
		return nil, err
	}
	if err := requireStatus(ticket, domain.TicketStatusOpen); err != nil {
		return nil, err
	}
	if input.EstimatedResolutionTime.IsZero() {
		return nil, apperrors.NewValidationError("estimated_resolution_time is required", nil)
	}
	if input.Priority != "" && !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusInProgress
	est := input.EstimatedResolutionTime
	ticket.EstimatedResolutionTime = &est
	if ticket.InProgressAt == nil {
		ticket.InProgressAt = &now
	}
	if input.Priority != "" {
		ticket.Priority = input.Priority
	}
	ticket.UpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, subject, ticket, oldStatus)
	return ticket, nil
}

// AddComment appends to the ticket's comment ledger. Comments are only
// accepted while the ticket is in progress.
func (s *TicketService) AddComment(ctx context.Context, subject *domain.User, ticketID, body string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParticipant(subject, ticket); err != nil {
		return nil, err
	}
	if err := requireStatus(ticket, domain.TicketStatusInProgress); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("comment is required", nil)
	}

	now := s.now()
	if err := s.appendComment(ctx, ticket, subject.ID, body, now); err != nil {
		return nil, err
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCommentAdded,
		SubjectID: subject.ID,
		Payload: events.TicketCommentAddedPayload{
			TicketID:    ticket.ID,
			CommentedBy: subject.ID,
			BodyPreview: stringPreview(body, 120),
		},
	})
	return ticket, nil
}

// Resolve marks an in-progress ticket resolved with a required comment.
func (s *TicketService) Resolve(ctx context.Context, subject *domain.User, ticketID, comment string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAssignee(subject, ticket); err != nil {
		return nil, err
	}
	if err := requireStatus(ticket, domain.TicketStatusInProgress); err != nil {
		return nil, err
	}
	if strings.TrimSpace(comment) == "" {
		return nil, apperrors.NewValidationError("resolution comment is required", nil)
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusResolved
	if ticket.ResolvedAt == nil {
		ticket.ResolvedAt = &now
	}
	ticket.EstimatedResolutionTime = nil
	ticket.UpdatedAt = now

	if err := s.appendComment(ctx, ticket, subject.ID, comment, now); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, subject, ticket, oldStatus)
	return ticket, nil
}

// Close terminalizes a ticket. Only the creator may close, from any
// status except closed, and must leave feedback.
func (s *TicketService) Close(ctx context.Context, subject *domain.User, ticketID, feedback string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireCreator(subject, ticket); err != nil {
		return nil, err
	}
	if err := requireNotClosed(ticket); err != nil {
		return nil, err
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, apperrors.NewValidationError("feedback comment is required", nil)
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	if ticket.ClosedAt == nil {
		ticket.ClosedAt = &now
	}
	ticket.UpdatedAt = now

	if err := s.appendComment(ctx, ticket, subject.ID, feedback, now); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, subject, ticket, oldStatus)
	return ticket, nil
}

// Refer transfers a non-closed ticket to another entity and reopens it.
func (s *TicketService) Refer(ctx context.Context, subject *domain.User, ticketID string, input ReferralInput) (*domain.Ticket, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAssignee(subject, ticket); err != nil {
		return nil, err
	}
	if err := requireNotClosed(ticket); err != nil {
		return nil, err
	}
	if !input.AssignedKind.Valid() {
		return nil, apperrors.NewValidationError("assigned_kind must be DEPARTMENT or LOCATION", nil)
	}
	if strings.TrimSpace(input.Comment) == "" {
		return nil, apperrors.NewValidationError("referral comment is required", nil)
	}
	if _, err := s.entities.Resolve(ctx, input.AssignedKind, input.AssignedTo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("target entity does not exist", nil)
		}
		return nil, err
	}

	now := s.now()
	fromEntity, fromKind := ticket.AssignedTo, ticket.AssignedKind
	ticket.AssignedTo = input.AssignedTo
	ticket.AssignedKind = input.AssignedKind
	ticket.Status = domain.TicketStatusOpen
	// The receiving entity re-triages, so the previous estimate is void.
	ticket.EstimatedResolutionTime = nil
	ticket.UpdatedAt = now

	if err := s.appendComment(ctx, ticket, subject.ID, input.Comment, now); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketReferred,
		SubjectID: subject.ID,
		Payload: events.TicketReferredPayload{
			TicketID:   ticket.ID,
			FromEntity: fromEntity,
			FromKind:   fromKind,
			ToEntity:   ticket.AssignedTo,
			ToKind:     ticket.AssignedKind,
		},
	})
	return ticket, nil
}

// Get fetches a single ticket for a participant.
func (s *TicketService) Get(ctx context.Context, subject *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParticipant(subject, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListMine returns the caller's non-closed tickets.
func (s *TicketService) ListMine(ctx context.Context, subject *domain.User) ([]domain.Ticket, error) {
	if subject == nil {
		return nil, apperrors.NewForbidden("subject required")
	}
	return s.tickets.ListByCreator(ctx, subject.ID, true)
}

// ListAssigned returns an entity's non-closed tickets for its members.
func (s *TicketService) ListAssigned(ctx context.Context, subject *domain.User, entityID string, kind domain.EntityKind) ([]domain.Ticket, error) {
	if err := auth.RequireMember(subject, entityID, kind); err != nil {
		return nil, err
	}
	return s.tickets.ListByAssignee(ctx, entityID, kind, true)
}

// ListClosedInRange returns closed tickets inside a date range for
// reporting.
func (s *TicketService) ListClosedInRange(ctx context.Context, subject *domain.User, from, to time.Time) ([]domain.Ticket, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, apperrors.NewValidationError("a valid date range is required", nil)
	}
	return s.tickets.ListClosedInRange(ctx, from, to)
}

func (s *TicketService) appendComment(ctx context.Context, ticket *domain.Ticket, userID, body string, now time.Time) error {
	comment := &domain.Comment{
		TicketID:    ticket.ID,
		Body:        strings.TrimSpace(body),
		CommentedBy: userID,
		CreatedAt:   now,
	}
	if err := s.tickets.AppendComment(ctx, comment); err != nil {
		return err
	}
	ticket.Comments = append(ticket.Comments, *comment)
	return nil
}

func (s *TicketService) publishStatusChange(ctx context.Context, subject *domain.User, ticket *domain.Ticket, oldStatus domain.TicketStatus) {
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		SubjectID: subject.ID,
		Payload: events.TicketStatusChangedPayload{
			TicketID:  ticket.ID,
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func requireStatus(ticket *domain.Ticket, allowed ...domain.TicketStatus) error {
	for _, status := range allowed {
		if ticket.Status == status {
			return nil
		}
	}
	return apperrors.NewInvalidTransition("operation not allowed in current status",
		map[string]any{"status": ticket.Status})
}

func requireNotClosed(ticket *domain.Ticket) error {
	if ticket.Status == domain.TicketStatusClosed {
		return apperrors.NewInvalidTransition("ticket is closed",
			map[string]any{"status": ticket.Status})
	}
	return nil
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
