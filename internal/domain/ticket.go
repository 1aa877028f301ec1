package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency, set when the assignee triages.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests raised between locations
// and departments. AssignedTo resolves to an entity of AssignedKind; the
// pair changes only through referral. Lifecycle timestamps are set once.
type Ticket struct {
	ID                      string
	Title                   string
	Description             string
	AssignedTo              string
	AssignedKind            EntityKind
	CreatedBy               string
	Priority                TicketPriority
	Status                  TicketStatus
	EstimatedResolutionTime *time.Time
	InProgressAt            *time.Time
	ResolvedAt              *time.Time
	ClosedAt                *time.Time
	Images                  []string
	Comments                []Comment
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Comment is an entry in a ticket's append-only comment ledger.
type Comment struct {
	ID          string
	TicketID    string
	Body        string
	CommentedBy string
	CreatedAt   time.Time
}
