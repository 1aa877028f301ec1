package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/field-ops/support-desk/internal/api/dto"
	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/scheduler"
	"github.com/field-ops/support-desk/internal/service"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// ReportsHandler manages security and weekly report endpoints.
type ReportsHandler struct {
	service *service.ReportService
	weekly  *scheduler.Weekly
}

// NewReportsHandler constructs handler. The scheduler may be nil when
// disabled; the trigger endpoint then reports a conflict.
func NewReportsHandler(reportService *service.ReportService, weekly *scheduler.Weekly) *ReportsHandler {
	return &ReportsHandler{service: reportService, weekly: weekly}
}

// GetLatestWeekly GET /reports/weekly/latest.
func (h *ReportsHandler) GetLatestWeekly(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	report, err := h.service.GetLatest(c.Context(), subject)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": weeklyReportResponse(report)})
}

// GetWeekly GET /reports/weekly/:id.
func (h *ReportsHandler) GetWeekly(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	report, err := h.service.GetByID(c.Context(), subject, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": weeklyReportResponse(report)})
}

// ListWeeklyInRange POST /reports/weekly/range.
func (h *ReportsHandler) ListWeeklyInRange(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.DateRangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reports, err := h.service.ListInRange(c.Context(), subject, req.From, req.To)
	if err != nil {
		return err
	}
	items := make([]dto.WeeklyReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, weeklyReportResponse(&reports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ClearByIT PATCH /reports/weekly/:id/clear-by-it.
func (h *ReportsHandler) ClearByIT(c *fiber.Ctx) error {
	return h.clear(c, domain.ClearanceIT)
}

// ClearByMonitoring PATCH /reports/weekly/:id/clear-by-monitoring.
func (h *ReportsHandler) ClearByMonitoring(c *fiber.Ctx) error {
	return h.clear(c, domain.ClearanceMonitoring)
}

// ClearByOperations PATCH /reports/weekly/:id/clear-by-operations.
func (h *ReportsHandler) ClearByOperations(c *fiber.Ctx) error {
	return h.clear(c, domain.ClearanceOperations)
}

func (h *ReportsHandler) clear(c *fiber.Ctx, area domain.ClearanceArea) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	report, err := h.service.Clear(c.Context(), subject, c.Params("id"), area)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": weeklyReportResponse(report)})
}

// GetSecurityReport GET /reports/security/:id.
func (h *ReportsHandler) GetSecurityReport(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	report, err := h.service.GetSecurityReport(c.Context(), subject, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": securityReportResponse(report)})
}

// SubmitSecurityReport PATCH /reports/security/:id/submit.
func (h *ReportsHandler) SubmitSecurityReport(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitSecurityReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.service.SubmitSecurityReport(c.Context(), subject, c.Params("id"), service.SecurityReportInput{
		TotalCCTV:              req.TotalCCTV,
		FaultyCCTV:             req.FaultyCCTV,
		WalkthroughGates:       req.WalkthroughGates,
		FaultyWalkthroughGates: req.FaultyWalkthroughGates,
		MetalDetectors:         req.MetalDetectors,
		FaultyMetalDetectors:   req.FaultyMetalDetectors,
		BiometricStatus:        req.BiometricStatus,
		Comments:               req.Comments,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": securityReportResponse(report)})
}

// TriggerWeeklyRun POST /reports/weekly/run. Queues an out-of-band
// scheduler pass; idempotency inside the week window still applies.
func (h *ReportsHandler) TriggerWeeklyRun(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := auth.RequireRole(subject, domain.RoleSuperadmin); err != nil {
		return err
	}
	if h.weekly == nil {
		return apperrors.NewConflict("weekly report scheduler is disabled", nil)
	}
	select {
	case h.weekly.Trigger <- struct{}{}:
	default:
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"queued": true}})
}

func weeklyReportResponse(report *domain.WeeklyReport) dto.WeeklyReportResponse {
	markets := make([]dto.SecurityReportResponse, 0, len(report.MarketsReport))
	for i := range report.MarketsReport {
		markets = append(markets, securityReportResponse(&report.MarketsReport[i]))
	}
	return dto.WeeklyReportResponse{
		ID:                    report.ID,
		CreatedAt:             report.CreatedAt,
		MarketsReport:         markets,
		ClearedByIt:           report.ClearedByIt,
		ClearedByItAt:         report.ClearedByItAt,
		ClearedByMonitoring:   report.ClearedByMonitoring,
		ClearedByMonitoringAt: report.ClearedByMonitoringAt,
		ClearedByOperations:   report.ClearedByOperations,
		ClearedByOperationsAt: report.ClearedByOperationsAt,
		FullyCleared:          report.FullyCleared(),
	}
}

func securityReportResponse(report *domain.SecurityReport) dto.SecurityReportResponse {
	return dto.SecurityReportResponse{
		ID:                     report.ID,
		LocationID:             report.LocationID,
		LocationName:           report.LocationName,
		IsSubmitted:            report.IsSubmitted,
		TotalCCTV:              report.TotalCCTV,
		FaultyCCTV:             report.FaultyCCTV,
		WalkthroughGates:       report.WalkthroughGates,
		FaultyWalkthroughGates: report.FaultyWalkthroughGates,
		MetalDetectors:         report.MetalDetectors,
		FaultyMetalDetectors:   report.FaultyMetalDetectors,
		BiometricStatus:        report.BiometricStatus,
		Comments:               report.Comments,
		CreatedAt:              report.CreatedAt,
		UpdatedAt:              report.UpdatedAt,
	}
}
