package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/field-ops/support-desk/internal/api/dto"
	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/service"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.Context(), subject, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		AssignedTo:   req.AssignedTo,
		AssignedKind: req.AssignedKind,
		Images:       req.Images,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListMine GET /tickets/mine.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	tickets, err := h.service.ListMine(c.Context(), subject)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// ListAssigned GET /tickets/assigned/:entityKind/:entityId.
func (h *TicketsHandler) ListAssigned(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	kind := domain.EntityKind(c.Params("entityKind"))
	if !kind.Valid() {
		return apperrors.NewValidationError("entityKind must be DEPARTMENT or LOCATION", nil)
	}
	tickets, err := h.service.ListAssigned(c.Context(), subject, c.Params("entityId"), kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.service.Get(c.Context(), subject, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListClosedInRange POST /tickets/closed-range.
func (h *TicketsHandler) ListClosedInRange(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.DateRangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tickets, err := h.service.ListClosedInRange(c.Context(), subject, req.From, req.To)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// SetResolutionTime PATCH /tickets/:id/resolution-time.
func (h *TicketsHandler) SetResolutionTime(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SetResolutionTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetResolutionTime(c.Context(), subject, c.Params("id"), service.ResolutionTimeInput{
		EstimatedResolutionTime: req.EstimatedResolutionTime,
		Priority:                req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddComment PATCH /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddComment(c.Context(), subject, c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ResolveTicket PATCH /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Resolve(c.Context(), subject, c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CloseTicket PATCH /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Close(c.Context(), subject, c.Params("id"), req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ReferTicket PATCH /tickets/:id/refer.
func (h *TicketsHandler) ReferTicket(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReferTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Refer(c.Context(), subject, c.Params("id"), service.ReferralInput{
		AssignedTo:   req.AssignedTo,
		AssignedKind: req.AssignedKind,
		Comment:      req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                      ticket.ID,
		Title:                   ticket.Title,
		AssignedTo:              ticket.AssignedTo,
		AssignedKind:            ticket.AssignedKind,
		CreatedBy:               ticket.CreatedBy,
		Status:                  ticket.Status,
		Priority:                ticket.Priority,
		EstimatedResolutionTime: ticket.EstimatedResolutionTime,
		CreatedAt:               ticket.CreatedAt,
		UpdatedAt:               ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(ticket.Comments))
	for _, comment := range ticket.Comments {
		comments = append(comments, dto.CommentResponse{
			ID:          comment.ID,
			Body:        comment.Body,
			CommentedBy: comment.CommentedBy,
			CreatedAt:   comment.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		ID:                      ticket.ID,
		Title:                   ticket.Title,
		Description:             ticket.Description,
		AssignedTo:              ticket.AssignedTo,
		AssignedKind:            ticket.AssignedKind,
		CreatedBy:               ticket.CreatedBy,
		Status:                  ticket.Status,
		Priority:                ticket.Priority,
		EstimatedResolutionTime: ticket.EstimatedResolutionTime,
		InProgressAt:            ticket.InProgressAt,
		ResolvedAt:              ticket.ResolvedAt,
		ClosedAt:                ticket.ClosedAt,
		Images:                  ticket.Images,
		Comments:                comments,
		CreatedAt:               ticket.CreatedAt,
		UpdatedAt:               ticket.UpdatedAt,
	}
}
