package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/field-ops/support-desk/internal/domain"
)

// TicketRepository encapsulates ticket persistence. GetByID composes the
// comment ledger onto the ticket; list queries return tickets without
// comments.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	AppendComment(ctx context.Context, comment *domain.Comment) error
	ListByCreator(ctx context.Context, userID string, excludeClosed bool) ([]domain.Ticket, error)
	ListByAssignee(ctx context.Context, entityID string, kind domain.EntityKind, excludeClosed bool) ([]domain.Ticket, error)
	ListClosedInRange(ctx context.Context, from, to time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, assigned_to, assigned_kind, created_by,
               priority, status, estimated_resolution_time, in_progress_at, resolved_at,
               closed_at, images, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, assigned_to, assigned_kind, created_by,
            priority, status, images, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.AssignedTo,
		ticket.AssignedKind,
		ticket.CreatedBy,
		ticket.Priority,
		ticket.Status,
		ticket.Images,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_to=$1, assigned_kind=$2, priority=$3, status=$4,
            estimated_resolution_time=$5, in_progress_at=$6, resolved_at=$7, closed_at=$8,
            updated_at=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.AssignedTo,
		ticket.AssignedKind,
		ticket.Priority,
		ticket.Status,
		ticket.EstimatedResolutionTime,
		ticket.InProgressAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.AssignedTo,
		&ticket.AssignedKind,
		&ticket.CreatedBy,
		&ticket.Priority,
		&ticket.Status,
		&ticket.EstimatedResolutionTime,
		&ticket.InProgressAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.Images,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}

	comments, err := r.listComments(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Comments = comments
	return &ticket, nil
}

func (r *ticketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, body, commented_by, created_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.Body,
		comment.CommentedBy,
		comment.CreatedAt,
	).Scan(&comment.ID)
}

func (r *ticketRepository) listComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, body, commented_by, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.Body,
			&comment.CommentedBy,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListByCreator(ctx context.Context, userID string, excludeClosed bool) ([]domain.Ticket, error) {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE created_by=$1`
	if excludeClosed {
		query += ` AND status <> 'CLOSED'`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByAssignee(ctx context.Context, entityID string, kind domain.EntityKind, excludeClosed bool) ([]domain.Ticket, error) {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE assigned_to=$1 AND assigned_kind=$2`
	if excludeClosed {
		query += ` AND status <> 'CLOSED'`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, entityID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListClosedInRange(ctx context.Context, from, to time.Time) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status='CLOSED' AND closed_at >= $1 AND closed_at <= $2
        ORDER BY closed_at DESC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.AssignedTo,
			&ticket.AssignedKind,
			&ticket.CreatedBy,
			&ticket.Priority,
			&ticket.Status,
			&ticket.EstimatedResolutionTime,
			&ticket.InProgressAt,
			&ticket.ResolvedAt,
			&ticket.ClosedAt,
			&ticket.Images,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
