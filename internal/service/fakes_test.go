package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/field-ops/support-desk/internal/domain"
)

// In-memory repository fakes. They copy on read and write the way the
// database round-trip would, so service-side mutations only stick after
// an explicit Update.

type memEntityRepo struct {
	mu          sync.Mutex
	departments map[string]domain.Department
	locations   map[string]domain.Location
	seq         int
}

func newMemEntityRepo() *memEntityRepo {
	return &memEntityRepo{
		departments: make(map[string]domain.Department),
		locations:   make(map[string]domain.Location),
	}
}

func (r *memEntityRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memEntityRepo) CreateDepartment(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept.ID = r.nextID("dept")
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = dept.CreatedAt
	r.departments[dept.ID] = *dept
	return nil
}

func (r *memEntityRepo) GetDepartment(_ context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *memEntityRepo) GetDepartmentByName(_ context.Context, name string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dept := range r.departments {
		if dept.Name == name {
			d := dept
			return &d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memEntityRepo) ListDepartments(_ context.Context) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Department, 0, len(r.departments))
	for _, dept := range r.departments {
		result = append(result, dept)
	}
	return result, nil
}

func (r *memEntityRepo) CreateLocation(_ context.Context, loc *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc.ID = r.nextID("loc")
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = loc.CreatedAt
	r.locations[loc.ID] = *loc
	return nil
}

func (r *memEntityRepo) GetLocation(_ context.Context, id string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &loc, nil
}

func (r *memEntityRepo) GetLocationByName(_ context.Context, name string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, loc := range r.locations {
		if loc.Name == name {
			l := loc
			return &l, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memEntityRepo) ListLocations(_ context.Context) ([]domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Location, 0, len(r.locations))
	for _, loc := range r.locations {
		result = append(result, loc)
	}
	return result, nil
}

func (r *memEntityRepo) SetCurrentReport(_ context.Context, locationID, reportID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[locationID]
	if !ok {
		return pgx.ErrNoRows
	}
	loc.CurrentReportID = &reportID
	r.locations[locationID] = loc
	return nil
}

func (r *memEntityRepo) Resolve(ctx context.Context, kind domain.EntityKind, id string) (*domain.EntityRef, error) {
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

type memTicketRepo struct {
	mu       sync.Mutex
	tickets  map[string]domain.Ticket
	comments map[string][]domain.Comment
	seq      int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string][]domain.Comment),
	}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	stored := *ticket
	stored.Comments = nil
	r.tickets[ticket.ID] = stored
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *ticket
	stored.Comments = nil
	r.tickets[ticket.ID] = stored
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Comments = append([]domain.Comment(nil), r.comments[id]...)
	return &ticket, nil
}

func (r *memTicketRepo) AppendComment(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], *comment)
	return nil
}

func (r *memTicketRepo) ListByCreator(_ context.Context, userID string, excludeClosed bool) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.CreatedBy != userID {
			continue
		}
		if excludeClosed && ticket.Status == domain.TicketStatusClosed {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *memTicketRepo) ListByAssignee(_ context.Context, entityID string, kind domain.EntityKind, excludeClosed bool) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.AssignedTo != entityID || ticket.AssignedKind != kind {
			continue
		}
		if excludeClosed && ticket.Status == domain.TicketStatusClosed {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *memTicketRepo) ListClosedInRange(_ context.Context, from, to time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Status != domain.TicketStatusClosed || ticket.ClosedAt == nil {
			continue
		}
		if ticket.ClosedAt.Before(from) || ticket.ClosedAt.After(to) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

type memSecurityRepo struct {
	mu      sync.Mutex
	reports map[string]domain.SecurityReport
	seq     int
}

func newMemSecurityRepo() *memSecurityRepo {
	return &memSecurityRepo{reports: make(map[string]domain.SecurityReport)}
}

func (r *memSecurityRepo) Create(_ context.Context, report *domain.SecurityReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	report.ID = fmt.Sprintf("sec-%d", r.seq)
	r.reports[report.ID] = *report
	return nil
}

func (r *memSecurityRepo) Update(_ context.Context, report *domain.SecurityReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[report.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.reports[report.ID] = *report
	return nil
}

func (r *memSecurityRepo) GetByID(_ context.Context, id string) (*domain.SecurityReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &report, nil
}

type memWeeklyRepo struct {
	mu      sync.Mutex
	reports map[string]domain.WeeklyReport
	items   map[string][]string
	seq     int
}

func newMemWeeklyRepo() *memWeeklyRepo {
	return &memWeeklyRepo{
		reports: make(map[string]domain.WeeklyReport),
		items:   make(map[string][]string),
	}
}

func (r *memWeeklyRepo) Create(_ context.Context, report *domain.WeeklyReport, securityReportIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	report.ID = fmt.Sprintf("weekly-%d", r.seq)
	stored := *report
	stored.MarketsReport = nil
	r.reports[report.ID] = stored
	r.items[report.ID] = append([]string(nil), securityReportIDs...)
	return nil
}

func (r *memWeeklyRepo) UpdateClearance(_ context.Context, report *domain.WeeklyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reports[report.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.ClearedByIt = report.ClearedByIt
	stored.ClearedByItAt = report.ClearedByItAt
	stored.ClearedByMonitoring = report.ClearedByMonitoring
	stored.ClearedByMonitoringAt = report.ClearedByMonitoringAt
	stored.ClearedByOperations = report.ClearedByOperations
	stored.ClearedByOperationsAt = report.ClearedByOperationsAt
	r.reports[report.ID] = stored
	return nil
}

func (r *memWeeklyRepo) GetByID(_ context.Context, id string) (*domain.WeeklyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &report, nil
}

func (r *memWeeklyRepo) GetLatest(_ context.Context) (*domain.WeeklyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.WeeklyReport
	for id := range r.reports {
		report := r.reports[id]
		if latest == nil || report.CreatedAt.After(latest.CreatedAt) {
			latest = &report
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (r *memWeeklyRepo) FindInWindow(_ context.Context, start, end time.Time) (*domain.WeeklyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.reports {
		report := r.reports[id]
		if !report.CreatedAt.Before(start) && !report.CreatedAt.After(end) {
			return &report, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memWeeklyRepo) ListInRange(_ context.Context, from, to time.Time) ([]domain.WeeklyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WeeklyReport
	for id := range r.reports {
		report := r.reports[id]
		if !report.CreatedAt.Before(from) && !report.CreatedAt.After(to) {
			result = append(result, report)
		}
	}
	return result, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.Active {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email && user.Active {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, nil
}

// fakeClock hands out a controllable, strictly advancing time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
