package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/field-ops/support-desk/internal/domain"
)

// EntityRepository manages the two assignable entity kinds: departments
// and locations.
type EntityRepository interface {
	CreateDepartment(ctx context.Context, dept *domain.Department) error
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	GetDepartmentByName(ctx context.Context, name string) (*domain.Department, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	CreateLocation(ctx context.Context, loc *domain.Location) error
	GetLocation(ctx context.Context, id string) (*domain.Location, error)
	GetLocationByName(ctx context.Context, name string) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]domain.Location, error)
	SetCurrentReport(ctx context.Context, locationID, reportID string) error
	Resolve(ctx context.Context, kind domain.EntityKind, id string) (*domain.EntityRef, error)
}

type entityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository instantiates the repository.
func NewEntityRepository(pool *pgxpool.Pool) EntityRepository {
	return &entityRepository{pool: pool}
}

func (r *entityRepository) CreateDepartment(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, dept.Name).
		Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *entityRepository) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *entityRepository) GetDepartmentByName(ctx context.Context, name string) (*domain.Department, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM departments WHERE name=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&dept.ID,
		&dept.Name,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *entityRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, created_at, updated_at
        FROM departments ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *entityRepository) CreateLocation(ctx context.Context, loc *domain.Location) error {
	const query = `
        INSERT INTO locations (name)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, loc.Name).
		Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
}

func (r *entityRepository) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	const query = `
        SELECT id, name, current_report_id, created_at, updated_at
        FROM locations WHERE id=$1`
	return r.fetchLocation(ctx, query, id)
}

func (r *entityRepository) GetLocationByName(ctx context.Context, name string) (*domain.Location, error) {
	const query = `
        SELECT id, name, current_report_id, created_at, updated_at
        FROM locations WHERE name=$1`
	return r.fetchLocation(ctx, query, name)
}

func (r *entityRepository) fetchLocation(ctx context.Context, query string, arg any) (*domain.Location, error) {
	var loc domain.Location
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&loc.ID,
		&loc.Name,
		&loc.CurrentReportID,
		&loc.CreatedAt,
		&loc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *entityRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	const query = `
        SELECT id, name, current_report_id, created_at, updated_at
        FROM locations ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.CurrentReportID, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}

func (r *entityRepository) SetCurrentReport(ctx context.Context, locationID, reportID string) error {
	const query = `
        UPDATE locations SET current_report_id=$1, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, reportID, locationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *entityRepository) Resolve(ctx context.Context, kind domain.EntityKind, id string) (*domain.EntityRef, error) {
	switch kind {
	case domain.EntityKindDepartment:
		dept, err := r.GetDepartment(ctx, id)
		if err != nil {
			return nil, err
		}
		return &domain.EntityRef{ID: dept.ID, Kind: kind, Name: dept.Name}, nil
	case domain.EntityKindLocation:
		loc, err := r.GetLocation(ctx, id)
		if err != nil {
			return nil, err
		}
		return &domain.EntityRef{ID: loc.ID, Kind: kind, Name: loc.Name}, nil
	default:
		return nil, pgx.ErrNoRows
	}
}
