package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/field-ops/support-desk/internal/domain"
)

const (
	latestWeeklyReportKey = "reports:weekly:latest"
	weeklyReportCacheTTL  = 10 * time.Minute
)

// WeeklyReportCache caches the latest weekly report in Redis. All methods
// degrade to cache misses on connectivity problems so the read path never
// depends on Redis being up.
type WeeklyReportCache struct {
	client *redis.Client
}

// NewWeeklyReportCache builds a cache over the shared Redis client.
func NewWeeklyReportCache(r *Redis) *WeeklyReportCache {
	if r == nil {
		return &WeeklyReportCache{}
	}
	return &WeeklyReportCache{client: r.Client}
}

// GetLatest returns the cached latest report, or (nil, false) on a miss.
func (c *WeeklyReportCache) GetLatest(ctx context.Context) (*domain.WeeklyReport, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, latestWeeklyReportKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, false
		}
		return nil, false
	}
	var report domain.WeeklyReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// SetLatest stores the latest report.
func (c *WeeklyReportCache) SetLatest(ctx context.Context, report *domain.WeeklyReport) {
	if c == nil || c.client == nil || report == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, latestWeeklyReportKey, payload, weeklyReportCacheTTL).Err()
}

// Invalidate drops the cached report after a mutation.
func (c *WeeklyReportCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, latestWeeklyReportKey).Err()
}
