package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/field-ops/support-desk/internal/config"
	"github.com/field-ops/support-desk/internal/domain"
	"github.com/field-ops/support-desk/internal/events"
	"github.com/field-ops/support-desk/internal/observability"
	"github.com/field-ops/support-desk/internal/repository"
)

// ReportCache drops the cached latest weekly report once a newer one
// exists. A nil cache is a valid no-op implementation.
type ReportCache interface {
	Invalidate(ctx context.Context)
}

// Weekly creates one security report per location and the aggregating
// weekly report, once per calendar week. Runs are idempotent inside a
// week window, so an extra trigger or a restart never duplicates a
// report.
type Weekly struct {
	weekly     repository.WeeklyReportRepository
	security   repository.SecurityReportRepository
	entities   repository.EntityRepository
	cache      ReportCache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time

	// Trigger forces a run outside the timer, used by tests and by the
	// manual trigger endpoint.
	Trigger chan struct{}

	stop chan struct{}
	done chan struct{}
}

// Dependencies bundles the scheduler's requirements.
type Dependencies struct {
	WeeklyRepo   repository.WeeklyReportRepository
	SecurityRepo repository.SecurityReportRepository
	EntityRepo   repository.EntityRepository
	Cache        ReportCache
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewWeekly builds the scheduler. The configured timezone decides where
// week boundaries fall; an invalid timezone falls back to UTC.
func NewWeekly(cfg config.ReportConfig, deps Dependencies) *Weekly {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		deps.Logger.Warn("invalid report timezone, using UTC", zap.String("timezone", cfg.Timezone))
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Weekly{
		weekly:     deps.WeeklyRepo,
		security:   deps.SecurityRepo,
		entities:   deps.EntityRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		loc:        loc,
		now:        now,
		Trigger:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the scheduling loop. It fires shortly after each week
// rolls over and also runs once at startup to cover a restart that
// missed the boundary.
func (w *Weekly) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop shuts the loop down and waits for it to exit.
func (w *Weekly) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Weekly) loop(ctx context.Context) {
	defer close(w.done)

	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error("weekly report startup run failed", zap.Error(err))
	}

	for {
		timer := time.NewTimer(w.untilNextRun())
		select {
		case <-timer.C:
		case <-w.Trigger:
			timer.Stop()
		case <-w.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("weekly report run failed", zap.Error(err))
		}
	}
}

// untilNextRun returns the duration to the next Monday 00:05 in the
// reporting timezone. The five minute offset keeps the run clear of the
// window boundary.
func (w *Weekly) untilNextRun() time.Duration {
	now := w.now().In(w.loc)
	start, _ := w.weekBounds(now)
	next := start.AddDate(0, 0, 7).Add(5 * time.Minute)
	return next.Sub(now)
}

// RunOnce performs a single aggregation pass for the current week.
func (w *Weekly) RunOnce(ctx context.Context) error {
	now := w.now().In(w.loc)
	start, end := w.weekBounds(now)

	existing, err := w.weekly.FindInWindow(ctx, start, end)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		w.metrics.RecordWeeklyRun("failed")
		return err
	}
	if existing != nil {
		w.logger.Debug("weekly report already exists for this week",
			zap.String("weekly_report_id", existing.ID))
		w.metrics.RecordWeeklyRun("skipped")
		return nil
	}

	locations, err := w.entities.ListLocations(ctx)
	if err != nil {
		w.metrics.RecordWeeklyRun("failed")
		return err
	}
	if len(locations) == 0 {
		w.logger.Info("no locations registered, skipping weekly report")
		w.metrics.RecordWeeklyRun("empty")
		return nil
	}

	reportIDs, byLocation, failures := w.fanOut(ctx, locations, now)
	if len(reportIDs) == 0 {
		w.metrics.RecordWeeklyRun("failed")
		return errors.New("all per-location report creations failed")
	}

	aggregate := &domain.WeeklyReport{CreatedAt: now}
	if err := w.weekly.Create(ctx, aggregate, reportIDs); err != nil {
		w.metrics.RecordWeeklyRun("failed")
		return err
	}

	w.linkCurrentReports(ctx, byLocation)

	// The latest-report cache still holds last week's aggregate.
	if w.cache != nil {
		w.cache.Invalidate(ctx)
	}

	w.metrics.RecordWeeklyRun("created")
	w.logger.Info("weekly report created",
		zap.String("weekly_report_id", aggregate.ID),
		zap.Int("locations", len(locations)),
		zap.Int("reports", len(reportIDs)),
		zap.Int("failures", failures))

	w.publish(ctx, events.Event{
		Type: events.EventWeeklyReportCreated,
		Payload: events.WeeklyReportCreatedPayload{
			WeeklyReportID: aggregate.ID,
			ReportCount:    len(reportIDs),
			FailureCount:   failures,
		},
	})
	return nil
}

// fanOut creates one security report per location concurrently. A failed
// location is counted and skipped, the rest of the batch proceeds.
func (w *Weekly) fanOut(ctx context.Context, locations []domain.Location, createdAt time.Time) ([]string, map[string]string, int) {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		reportIDs  []string
		byLocation = make(map[string]string, len(locations))
		failures   int
	)

	for _, location := range locations {
		wg.Add(1)
		go func(loc domain.Location) {
			defer wg.Done()
			report := &domain.SecurityReport{
				LocationID: loc.ID,
				CreatedAt:  createdAt,
			}
			if err := w.security.Create(ctx, report); err != nil {
				w.logger.Error("security report creation failed",
					zap.String("location_id", loc.ID),
					zap.String("location", loc.Name),
					zap.Error(err))
				w.metrics.RecordFanoutFailure()
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			mu.Lock()
			reportIDs = append(reportIDs, report.ID)
			byLocation[loc.ID] = report.ID
			mu.Unlock()
		}(location)
	}
	wg.Wait()
	return reportIDs, byLocation, failures
}

// linkCurrentReports points each location at its fresh report. Failures
// here are logged but do not fail the run, the aggregate already exists.
func (w *Weekly) linkCurrentReports(ctx context.Context, byLocation map[string]string) {
	var wg sync.WaitGroup
	for locationID, reportID := range byLocation {
		wg.Add(1)
		go func(locationID, reportID string) {
			defer wg.Done()
			if err := w.entities.SetCurrentReport(ctx, locationID, reportID); err != nil {
				w.logger.Error("linking current report failed",
					zap.String("location_id", locationID),
					zap.Error(err))
				w.metrics.RecordFanoutFailure()
			}
		}(locationID, reportID)
	}
	wg.Wait()
}

// weekBounds returns the [Monday 00:00:00, Sunday 23:59:59] window that
// contains t, in the reporting timezone.
func (w *Weekly) weekBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(w.loc)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.loc).
		AddDate(0, 0, -(weekday - 1))
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}

func (w *Weekly) publish(ctx context.Context, event events.Event) {
	if w.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = w.now()
	_ = w.dispatcher.Publish(ctx, event)
}
