package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/field-ops/support-desk/internal/api/dto"
	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/service"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// EntitiesHandler manages department and location endpoints.
type EntitiesHandler struct {
	directory *service.DirectoryService
}

// NewEntitiesHandler constructs handler.
func NewEntitiesHandler(directory *service.DirectoryService) *EntitiesHandler {
	return &EntitiesHandler{directory: directory}
}

// CreateDepartment POST /departments.
func (h *EntitiesHandler) CreateDepartment(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateEntityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.directory.CreateDepartment(c.Context(), subject, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments GET /departments.
func (h *EntitiesHandler) ListDepartments(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	depts, err := h.directory.ListDepartments(c.Context(), subject)
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateLocation POST /locations.
func (h *EntitiesHandler) CreateLocation(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateEntityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	loc, err := h.directory.CreateLocation(c.Context(), subject, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": locationResponse(loc)})
}

// ListLocations GET /locations.
func (h *EntitiesHandler) ListLocations(c *fiber.Ctx) error {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	locs, err := h.directory.ListLocations(c.Context(), subject)
	if err != nil {
		return err
	}
	items := make([]dto.LocationResponse, 0, len(locs))
	for i := range locs {
		items = append(items, locationResponse(&locs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:        dept.ID,
		Name:      dept.Name,
		CreatedAt: dept.CreatedAt,
	}
}

func locationResponse(loc *domain.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:              loc.ID,
		Name:            loc.Name,
		CurrentReportID: loc.CurrentReportID,
		CreatedAt:       loc.CreatedAt,
	}
}
