package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/field-ops/support-desk/internal/config"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/observability"
	"github.com/field-ops/support-desk/internal/repository"
)

// Fakes implement only the methods the scheduler touches; the embedded
// interfaces keep the rest unimplemented.

type stubEntityRepo struct {
	repository.EntityRepository
	mu        sync.Mutex
	locations []domain.Location
	current   map[string]string
}

func (r *stubEntityRepo) ListLocations(context.Context) ([]domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Location(nil), r.locations...), nil
}

func (r *stubEntityRepo) SetCurrentReport(_ context.Context, locationID, reportID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		r.current = make(map[string]string)
	}
	r.current[locationID] = reportID
	return nil
}

type stubSecurityRepo struct {
	repository.SecurityReportRepository
	mu      sync.Mutex
	created []domain.SecurityReport
	failFor map[string]bool
	seq     int
}

func (r *stubSecurityRepo) Create(_ context.Context, report *domain.SecurityReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[report.LocationID] {
		return errors.New("insert failed")
	}
	r.seq++
	report.ID = fmt.Sprintf("sec-%d", r.seq)
	r.created = append(r.created, *report)
	return nil
}

type stubWeeklyRepo struct {
	repository.WeeklyReportRepository
	mu      sync.Mutex
	reports []domain.WeeklyReport
	items   map[string][]string
	seq     int
}

func (r *stubWeeklyRepo) Create(_ context.Context, report *domain.WeeklyReport, securityReportIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	report.ID = fmt.Sprintf("weekly-%d", r.seq)
	r.reports = append(r.reports, *report)
	if r.items == nil {
		r.items = make(map[string][]string)
	}
	r.items[report.ID] = append([]string(nil), securityReportIDs...)
	return nil
}

func (r *stubWeeklyRepo) FindInWindow(_ context.Context, start, end time.Time) (*domain.WeeklyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.reports {
		if !r.reports[i].CreatedAt.Before(start) && !r.reports[i].CreatedAt.After(end) {
			report := r.reports[i]
			return &report, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubWeeklyRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type stubReportCache struct {
	mu            sync.Mutex
	invalidations int
}

func (c *stubReportCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
}

func (c *stubReportCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
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

func newTestWeekly(clock *fakeClock, entities *stubEntityRepo, security *stubSecurityRepo, weekly *stubWeeklyRepo) *Weekly {
	return NewWeekly(config.ReportConfig{Timezone: "UTC"}, Dependencies{
		WeeklyRepo:   weekly,
		SecurityRepo: security,
		EntityRepo:   entities,
		Metrics:      observability.NewMetrics(),
		Logger:       zap.NewNop(),
		Now:          clock.Now,
	})
}

func locations(names ...string) []domain.Location {
	result := make([]domain.Location, 0, len(names))
	for i, name := range names {
		result = append(result, domain.Location{ID: fmt.Sprintf("loc-%d", i+1), Name: name})
	}
	return result
}

func TestRunOnceCreatesOneReportPerLocation(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	entities := &stubEntityRepo{locations: locations("North", "South", "East")}
	security := &stubSecurityRepo{}
	weekly := &stubWeeklyRepo{}

	w := newTestWeekly(clock, entities, security, weekly)
	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, security.created, 3)
	require.Equal(t, 1, weekly.count())
	require.Len(t, weekly.items["weekly-1"], 3)

	// Every location points at its fresh report.
	require.Len(t, entities.current, 3)
	for _, loc := range entities.locations {
		require.NotEmpty(t, entities.current[loc.ID])
	}
}

func TestRunOnceIsIdempotentWithinWeek(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)} // Monday
	entities := &stubEntityRepo{locations: locations("North")}
	security := &stubSecurityRepo{}
	weekly := &stubWeeklyRepo{}

	w := newTestWeekly(clock, entities, security, weekly)
	require.NoError(t, w.RunOnce(context.Background()))
	require.Equal(t, 1, weekly.count())

	// Later the same week, including the last second of Sunday.
	clock.Advance(3 * 24 * time.Hour)
	require.NoError(t, w.RunOnce(context.Background()))
	clock.Advance(3*24*time.Hour + 23*time.Hour + 28*time.Minute + 59*time.Second)
	require.NoError(t, w.RunOnce(context.Background()))
	require.Equal(t, 1, weekly.count())
	require.Len(t, security.created, 1)

	// The next Monday starts a new window.
	clock.Advance(2 * time.Minute)
	require.NoError(t, w.RunOnce(context.Background()))
	require.Equal(t, 2, weekly.count())
}

func TestRunOnceDropsLatestReportCache(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	entities := &stubEntityRepo{locations: locations("North")}
	cache := &stubReportCache{}

	w := NewWeekly(config.ReportConfig{Timezone: "UTC"}, Dependencies{
		WeeklyRepo:   &stubWeeklyRepo{},
		SecurityRepo: &stubSecurityRepo{},
		EntityRepo:   entities,
		Cache:        cache,
		Metrics:      observability.NewMetrics(),
		Logger:       zap.NewNop(),
		Now:          clock.Now,
	})

	require.NoError(t, w.RunOnce(context.Background()))
	require.Equal(t, 1, cache.count())

	// A skipped run leaves the cache alone.
	require.NoError(t, w.RunOnce(context.Background()))
	require.Equal(t, 1, cache.count())

	// The next week's report displaces the cached one.
	clock.Advance(7 * 24 * time.Hour)
	require.NoError(t, w.RunOnce(context.Background()))
	require.Equal(t, 2, cache.count())
}

func TestRunOnceSkipsWithoutLocations(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	entities := &stubEntityRepo{}
	security := &stubSecurityRepo{}
	weekly := &stubWeeklyRepo{}

	w := newTestWeekly(clock, entities, security, weekly)
	require.NoError(t, w.RunOnce(context.Background()))
	require.Zero(t, weekly.count())
	require.Empty(t, security.created)
}

func TestRunOnceSurvivesPartialFailure(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	entities := &stubEntityRepo{locations: locations("North", "South", "East")}
	security := &stubSecurityRepo{failFor: map[string]bool{"loc-2": true}}
	weekly := &stubWeeklyRepo{}

	w := newTestWeekly(clock, entities, security, weekly)
	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, security.created, 2)
	require.Equal(t, 1, weekly.count())
	require.Len(t, weekly.items["weekly-1"], 2)
	_, linked := entities.current["loc-2"]
	require.False(t, linked)
}

func TestRunOnceFailsWhenEveryLocationFails(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	entities := &stubEntityRepo{locations: locations("North")}
	security := &stubSecurityRepo{failFor: map[string]bool{"loc-1": true}}
	weekly := &stubWeeklyRepo{}

	w := newTestWeekly(clock, entities, security, weekly)
	require.Error(t, w.RunOnce(context.Background()))
	require.Zero(t, weekly.count())
}

func TestWeekBounds(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	w := newTestWeekly(clock, &stubEntityRepo{}, &stubSecurityRepo{}, &stubWeeklyRepo{})

	cases := []struct {
		name  string
		in    time.Time
		start time.Time
	}{
		{"wednesday", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"monday midnight", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"sunday night", time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"next monday", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := w.weekBounds(tc.in)
			require.True(t, tc.start.Equal(start))
			require.True(t, tc.start.AddDate(0, 0, 7).Add(-time.Second).Equal(end))
		})
	}
}

func TestStartTriggerStop(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	entities := &stubEntityRepo{locations: locations("North")}
	security := &stubSecurityRepo{}
	weekly := &stubWeeklyRepo{}

	w := newTestWeekly(clock, entities, security, weekly)
	w.Start(context.Background())

	// The startup pass creates this week's report.
	require.Eventually(t, func() bool { return weekly.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// A manual trigger in a new week creates the next one.
	clock.Advance(7 * 24 * time.Hour)
	w.Trigger <- struct{}{}
	require.Eventually(t, func() bool { return weekly.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	w.Stop()
}
