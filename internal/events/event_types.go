package events

import (
	"time"

	"github.com/field-ops/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketStatusChanged     EventType = "ticket_status_changed"
	EventTicketReferred          EventType = "ticket_referred"
	EventTicketCommentAdded      EventType = "ticket_comment_added"
	EventWeeklyReportCreated     EventType = "weekly_report_created"
	EventWeeklyReportCleared     EventType = "weekly_report_cleared"
	EventSecurityReportSubmitted EventType = "security_report_submitted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID     string                `json:"ticket_id"`
	AssignedTo   string                `json:"assigned_to"`
	AssignedKind domain.EntityKind     `json:"assigned_kind"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  string              `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketReferredPayload payload.
type TicketReferredPayload struct {
	TicketID   string            `json:"ticket_id"`
	FromEntity string            `json:"from_entity"`
	FromKind   domain.EntityKind `json:"from_kind"`
	ToEntity   string            `json:"to_entity"`
	ToKind     domain.EntityKind `json:"to_kind"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	TicketID    string `json:"ticket_id"`
	CommentedBy string `json:"commented_by"`
	BodyPreview string `json:"body_preview"`
}

// WeeklyReportCreatedPayload payload.
type WeeklyReportCreatedPayload struct {
	WeeklyReportID string `json:"weekly_report_id"`
	ReportCount    int    `json:"report_count"`
	FailureCount   int    `json:"failure_count"`
}

// WeeklyReportClearedPayload payload.
type WeeklyReportClearedPayload struct {
	WeeklyReportID string               `json:"weekly_report_id"`
	Area           domain.ClearanceArea `json:"area"`
}

// SecurityReportSubmittedPayload payload.
type SecurityReportSubmittedPayload struct {
	SecurityReportID string `json:"security_report_id"`
	LocationID       string `json:"location_id"`
}
