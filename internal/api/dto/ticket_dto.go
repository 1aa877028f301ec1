package dto

import (
	"time"

	"github.com/field-ops/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	AssignedTo   string            `json:"assigned_to"`
	AssignedKind domain.EntityKind `json:"assigned_kind"`
	Images       []string          `json:"images"`
}

// SetResolutionTimeRequest payload for the triage step.
type SetResolutionTimeRequest struct {
	EstimatedResolutionTime time.Time             `json:"estimated_resolution_time"`
	Priority                domain.TicketPriority `json:"priority,omitempty"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Comment string `json:"comment"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	Comment string `json:"comment"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	Feedback string `json:"feedback"`
}

// ReferTicketRequest payload for transferring a ticket.
type ReferTicketRequest struct {
	AssignedTo   string            `json:"assigned_to"`
	AssignedKind domain.EntityKind `json:"assigned_kind"`
	Comment      string            `json:"comment"`
}

// DateRangeRequest bounds a reporting query.
type DateRangeRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                      string                `json:"id"`
	Title                   string                `json:"title"`
	AssignedTo              string                `json:"assigned_to"`
	AssignedKind            domain.EntityKind     `json:"assigned_kind"`
	CreatedBy               string                `json:"created_by"`
	Status                  domain.TicketStatus   `json:"status"`
	Priority                domain.TicketPriority `json:"priority"`
	EstimatedResolutionTime *time.Time            `json:"estimated_resolution_time"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                      string                `json:"id"`
	Title                   string                `json:"title"`
	Description             string                `json:"description"`
	AssignedTo              string                `json:"assigned_to"`
	AssignedKind            domain.EntityKind     `json:"assigned_kind"`
	CreatedBy               string                `json:"created_by"`
	Status                  domain.TicketStatus   `json:"status"`
	Priority                domain.TicketPriority `json:"priority"`
	EstimatedResolutionTime *time.Time            `json:"estimated_resolution_time"`
	InProgressAt            *time.Time            `json:"in_progress_at"`
	ResolvedAt              *time.Time            `json:"resolved_at"`
	ClosedAt                *time.Time            `json:"closed_at"`
	Images                  []string              `json:"images"`
	Comments                []CommentResponse     `json:"comments"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// CommentResponse is one ledger entry.
type CommentResponse struct {
	ID          string    `json:"id"`
	Body        string    `json:"body"`
	CommentedBy string    `json:"commented_by"`
	CreatedAt   time.Time `json:"created_at"`
}
