package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/field-ops/support-desk/internal/domain"
)

// SecurityReportRepository persists per-location inspection reports.
type SecurityReportRepository interface {
	Create(ctx context.Context, report *domain.SecurityReport) error
	Update(ctx context.Context, report *domain.SecurityReport) error
	GetByID(ctx context.Context, id string) (*domain.SecurityReport, error)
}

// WeeklyReportRepository persists the weekly aggregate and its links to
// security reports. Reads compose location names onto the sub-reports.
type WeeklyReportRepository interface {
	Create(ctx context.Context, report *domain.WeeklyReport, securityReportIDs []string) error
	UpdateClearance(ctx context.Context, report *domain.WeeklyReport) error
	GetByID(ctx context.Context, id string) (*domain.WeeklyReport, error)
	GetLatest(ctx context.Context) (*domain.WeeklyReport, error)
	FindInWindow(ctx context.Context, start, end time.Time) (*domain.WeeklyReport, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]domain.WeeklyReport, error)
}

type securityReportRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityReportRepository instantiates the repository.
func NewSecurityReportRepository(pool *pgxpool.Pool) SecurityReportRepository {
	return &securityReportRepository{pool: pool}
}

func (r *securityReportRepository) Create(ctx context.Context, report *domain.SecurityReport) error {
	const query = `
        INSERT INTO security_reports (location_id, created_at)
        VALUES ($1,$2)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		report.LocationID,
		report.CreatedAt,
	).Scan(&report.ID)
}

func (r *securityReportRepository) Update(ctx context.Context, report *domain.SecurityReport) error {
	const query = `
        UPDATE security_reports SET is_submitted=$1, updated_at=$2, total_cctv=$3, faulty_cctv=$4,
            walkthrough_gates=$5, faulty_walkthrough_gates=$6, metal_detectors=$7,
            faulty_metal_detectors=$8, biometric_status=$9, comments=$10
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		report.IsSubmitted,
		report.UpdatedAt,
		report.TotalCCTV,
		report.FaultyCCTV,
		report.WalkthroughGates,
		report.FaultyWalkthroughGates,
		report.MetalDetectors,
		report.FaultyMetalDetectors,
		report.BiometricStatus,
		report.Comments,
		report.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const securityReportColumns = `s.id, s.location_id, l.name, s.created_at, s.updated_at, s.is_submitted,
               s.total_cctv, s.faulty_cctv, s.walkthrough_gates, s.faulty_walkthrough_gates,
               s.metal_detectors, s.faulty_metal_detectors, s.biometric_status, s.comments`

func (r *securityReportRepository) GetByID(ctx context.Context, id string) (*domain.SecurityReport, error) {
	const query = `
        SELECT ` + securityReportColumns + `
        FROM security_reports s
        JOIN locations l ON l.id = s.location_id
        WHERE s.id=$1`
	var report domain.SecurityReport
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.LocationID,
		&report.LocationName,
		&report.CreatedAt,
		&report.UpdatedAt,
		&report.IsSubmitted,
		&report.TotalCCTV,
		&report.FaultyCCTV,
		&report.WalkthroughGates,
		&report.FaultyWalkthroughGates,
		&report.MetalDetectors,
		&report.FaultyMetalDetectors,
		&report.BiometricStatus,
		&report.Comments,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

type weeklyReportRepository struct {
	pool *pgxpool.Pool
}

// NewWeeklyReportRepository instantiates the repository.
func NewWeeklyReportRepository(pool *pgxpool.Pool) WeeklyReportRepository {
	return &weeklyReportRepository{pool: pool}
}

func (r *weeklyReportRepository) Create(ctx context.Context, report *domain.WeeklyReport, securityReportIDs []string) error {
	const query = `
        INSERT INTO weekly_reports (created_at)
        VALUES ($1)
        RETURNING id`
	if err := r.pool.QueryRow(ctx, query, report.CreatedAt).Scan(&report.ID); err != nil {
		return err
	}

	const itemQuery = `
        INSERT INTO weekly_report_items (weekly_report_id, security_report_id)
        VALUES ($1,$2)`
	for _, reportID := range securityReportIDs {
		if _, err := r.pool.Exec(ctx, itemQuery, report.ID, reportID); err != nil {
			return err
		}
	}
	return nil
}

func (r *weeklyReportRepository) UpdateClearance(ctx context.Context, report *domain.WeeklyReport) error {
	const query = `
        UPDATE weekly_reports SET cleared_by_it=$1, cleared_by_it_at=$2,
            cleared_by_monitoring=$3, cleared_by_monitoring_at=$4,
            cleared_by_operations=$5, cleared_by_operations_at=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		report.ClearedByIt,
		report.ClearedByItAt,
		report.ClearedByMonitoring,
		report.ClearedByMonitoringAt,
		report.ClearedByOperations,
		report.ClearedByOperationsAt,
		report.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const weeklyReportColumns = `id, created_at, cleared_by_it, cleared_by_it_at,
               cleared_by_monitoring, cleared_by_monitoring_at,
               cleared_by_operations, cleared_by_operations_at`

func (r *weeklyReportRepository) GetByID(ctx context.Context, id string) (*domain.WeeklyReport, error) {
	const query = `
        SELECT ` + weeklyReportColumns + `
        FROM weekly_reports WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *weeklyReportRepository) GetLatest(ctx context.Context) (*domain.WeeklyReport, error) {
	const query = `
        SELECT ` + weeklyReportColumns + `
        FROM weekly_reports ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query)
}

func (r *weeklyReportRepository) FindInWindow(ctx context.Context, start, end time.Time) (*domain.WeeklyReport, error) {
	const query = `
        SELECT ` + weeklyReportColumns + `
        FROM weekly_reports WHERE created_at >= $1 AND created_at <= $2 LIMIT 1`
	return r.fetchSingle(ctx, query, start, end)
}

func (r *weeklyReportRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.WeeklyReport, error) {
	var report domain.WeeklyReport
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&report.ID,
		&report.CreatedAt,
		&report.ClearedByIt,
		&report.ClearedByItAt,
		&report.ClearedByMonitoring,
		&report.ClearedByMonitoringAt,
		&report.ClearedByOperations,
		&report.ClearedByOperationsAt,
	); err != nil {
		return nil, err
	}

	subReports, err := r.listSubReports(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	report.MarketsReport = subReports
	return &report, nil
}

func (r *weeklyReportRepository) ListInRange(ctx context.Context, from, to time.Time) ([]domain.WeeklyReport, error) {
	const query = `
        SELECT ` + weeklyReportColumns + `
        FROM weekly_reports WHERE created_at >= $1 AND created_at <= $2
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WeeklyReport
	for rows.Next() {
		var report domain.WeeklyReport
		if err := rows.Scan(
			&report.ID,
			&report.CreatedAt,
			&report.ClearedByIt,
			&report.ClearedByItAt,
			&report.ClearedByMonitoring,
			&report.ClearedByMonitoringAt,
			&report.ClearedByOperations,
			&report.ClearedByOperationsAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		subReports, err := r.listSubReports(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].MarketsReport = subReports
	}
	return result, nil
}

func (r *weeklyReportRepository) listSubReports(ctx context.Context, weeklyReportID string) ([]domain.SecurityReport, error) {
	const query = `
        SELECT ` + securityReportColumns + `
        FROM weekly_report_items i
        JOIN security_reports s ON s.id = i.security_report_id
        JOIN locations l ON l.id = s.location_id
        WHERE i.weekly_report_id=$1
        ORDER BY l.name`
	rows, err := r.pool.Query(ctx, query, weeklyReportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SecurityReport
	for rows.Next() {
		var report domain.SecurityReport
		if err := rows.Scan(
			&report.ID,
			&report.LocationID,
			&report.LocationName,
			&report.CreatedAt,
			&report.UpdatedAt,
			&report.IsSubmitted,
			&report.TotalCCTV,
			&report.FaultyCCTV,
			&report.WalkthroughGates,
			&report.FaultyWalkthroughGates,
			&report.MetalDetectors,
			&report.FaultyMetalDetectors,
			&report.BiometricStatus,
			&report.Comments,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
