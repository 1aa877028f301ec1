package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/config"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/events"
	"github.com/field-ops/support-desk/internal/repository"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// WeeklyReportCache caches the latest weekly report. A nil cache is a
// valid no-op implementation.
type WeeklyReportCache interface {
	GetLatest(ctx context.Context) (*domain.WeeklyReport, bool)
	SetLatest(ctx context.Context, report *domain.WeeklyReport)
	Invalidate(ctx context.Context)
}

// ReportService owns the security-report submission and the weekly
// report clearance workflow.
type ReportService struct {
	security   repository.SecurityReportRepository
	weekly     repository.WeeklyReportRepository
	entities   repository.EntityRepository
	cache      WeeklyReportCache
	dispatcher events.Dispatcher
	cfg        config.ReportConfig
	now        func() time.Time
}

// ReportDependencies bundles requirements for the report service.
type ReportDependencies struct {
	SecurityRepo repository.SecurityReportRepository
	WeeklyRepo   repository.WeeklyReportRepository
	EntityRepo   repository.EntityRepository
	Cache        WeeklyReportCache
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// SecurityReportInput carries a location's inspection data.
type SecurityReportInput struct {
	TotalCCTV              int
	FaultyCCTV             int
	WalkthroughGates       int
	FaultyWalkthroughGates int
	MetalDetectors         int
	FaultyMetalDetectors   int
	BiometricStatus        bool
	Comments               string
}

// NewReportService constructs the service.
func NewReportService(cfg config.ReportConfig, deps ReportDependencies) *ReportService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		security:   deps.SecurityRepo,
		weekly:     deps.WeeklyRepo,
		entities:   deps.EntityRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		cfg:        cfg,
		now:        now,
	}
}

// SubmitSecurityReport records a location's inspection data. The
// isSubmitted flag is one-way: a second submission is a conflict.
func (s *ReportService) SubmitSecurityReport(ctx context.Context, subject *domain.User, reportID string, input SecurityReportInput) (*domain.SecurityReport, error) {
	report, err := s.security.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(subject, report.LocationID, domain.EntityKindLocation); err != nil {
		return nil, err
	}
	if report.IsSubmitted {
		return nil, apperrors.NewConflict("security report already submitted", nil)
	}
	if input.TotalCCTV < 0 || input.FaultyCCTV < 0 ||
		input.WalkthroughGates < 0 || input.FaultyWalkthroughGates < 0 ||
		input.MetalDetectors < 0 || input.FaultyMetalDetectors < 0 {
		return nil, apperrors.NewValidationError("equipment counts cannot be negative", nil)
	}
	if input.FaultyCCTV > input.TotalCCTV ||
		input.FaultyWalkthroughGates > input.WalkthroughGates ||
		input.FaultyMetalDetectors > input.MetalDetectors {
		return nil, apperrors.NewValidationError("faulty counts cannot exceed totals", nil)
	}

	now := s.now()
	report.IsSubmitted = true
	report.UpdatedAt = &now
	report.TotalCCTV = input.TotalCCTV
	report.FaultyCCTV = input.FaultyCCTV
	report.WalkthroughGates = input.WalkthroughGates
	report.FaultyWalkthroughGates = input.FaultyWalkthroughGates
	report.MetalDetectors = input.MetalDetectors
	report.FaultyMetalDetectors = input.FaultyMetalDetectors
	report.BiometricStatus = input.BiometricStatus
	report.Comments = input.Comments

	if err := s.security.Update(ctx, report); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventSecurityReportSubmitted,
		SubjectID: subject.ID,
		Payload: events.SecurityReportSubmittedPayload{
			SecurityReportID: report.ID,
			LocationID:       report.LocationID,
		},
	})
	return report, nil
}

// Clear sets one of the three sign-off flags. Flags are monotonic: once
// true they stay true, and re-clearing is a successful no-op that keeps
// the original timestamp.
func (s *ReportService) Clear(ctx context.Context, subject *domain.User, reportID string, area domain.ClearanceArea) (*domain.WeeklyReport, error) {
	if err := s.requireClearanceAuthority(ctx, subject, area); err != nil {
		return nil, err
	}
	report, err := s.weekly.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	changed := false
	switch area {
	case domain.ClearanceIT:
		if !report.ClearedByIt {
			report.ClearedByIt = true
			report.ClearedByItAt = &now
			changed = true
		}
	case domain.ClearanceMonitoring:
		if !report.ClearedByMonitoring {
			report.ClearedByMonitoring = true
			report.ClearedByMonitoringAt = &now
			changed = true
		}
	case domain.ClearanceOperations:
		if !report.ClearedByOperations {
			report.ClearedByOperations = true
			report.ClearedByOperationsAt = &now
			changed = true
		}
	default:
		return nil, apperrors.NewValidationError("unknown clearance area", map[string]any{"area": area})
	}

	if !changed {
		return report, nil
	}
	if err := s.weekly.UpdateClearance(ctx, report); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventWeeklyReportCleared,
		SubjectID: subject.ID,
		Payload: events.WeeklyReportClearedPayload{
			WeeklyReportID: report.ID,
			Area:           area,
		},
	})
	return report, nil
}

// GetLatest returns the most recent weekly report, through the cache.
func (s *ReportService) GetLatest(ctx context.Context, subject *domain.User) (*domain.WeeklyReport, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if report, ok := s.cache.GetLatest(ctx); ok {
			return report, nil
		}
	}
	report, err := s.weekly.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetLatest(ctx, report)
	}
	return report, nil
}

// GetByID returns a weekly report with its sub-reports.
func (s *ReportService) GetByID(ctx context.Context, subject *domain.User, reportID string) (*domain.WeeklyReport, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.weekly.GetByID(ctx, reportID)
}

// GetSecurityReport returns a single sub-report for a participant: the
// location's own members or an admin.
func (s *ReportService) GetSecurityReport(ctx context.Context, subject *domain.User, reportID string) (*domain.SecurityReport, error) {
	report, err := s.security.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireMember(subject, report.LocationID, domain.EntityKindLocation); err != nil {
		if roleErr := auth.RequireRole(subject, domain.RoleAdmin); roleErr != nil {
			return nil, err
		}
	}
	return report, nil
}

// ListInRange returns weekly reports whose creation date falls in the
// given range.
func (s *ReportService) ListInRange(ctx context.Context, subject *domain.User, from, to time.Time) ([]domain.WeeklyReport, error) {
	if err := auth.RequireRole(subject, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, apperrors.NewValidationError("a valid date range is required", nil)
	}
	return s.weekly.ListInRange(ctx, from, to)
}

// requireClearanceAuthority checks that the caller belongs to the
// department configured for the area. Superadmin passes the role check
// as everywhere else.
func (s *ReportService) requireClearanceAuthority(ctx context.Context, subject *domain.User, area domain.ClearanceArea) error {
	if subject == nil {
		return apperrors.NewForbidden("subject required")
	}
	if subject.Role == domain.RoleSuperadmin {
		return nil
	}

	var deptName string
	switch area {
	case domain.ClearanceIT:
		deptName = s.cfg.ITDepartment
	case domain.ClearanceMonitoring:
		deptName = s.cfg.MonitoringDepartment
	case domain.ClearanceOperations:
		deptName = s.cfg.OperationsDepartment
	default:
		return apperrors.NewValidationError("unknown clearance area", map[string]any{"area": area})
	}

	if subject.AssignedKind != domain.EntityKindDepartment {
		return apperrors.NewForbidden("clearance requires a department assignment")
	}
	dept, err := s.entities.GetDepartment(ctx, subject.AssignedTo)
	if err != nil {
		return apperrors.MapError(err)
	}
	if dept.Name != deptName {
		return apperrors.NewForbidden("department is not authorized for this clearance")
	}
	return nil
}

func (s *ReportService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *ReportService) publishEvent(ctx context.Context, event events.Event) {
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
