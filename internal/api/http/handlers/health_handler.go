package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/field-ops/support-desk/internal/persistence"
)

const readyProbeTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness probes. Liveness only
// confirms the process answers; readiness pings the backing stores.
type HealthHandler struct {
	service  string
	version  string
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(service, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{service: service, version: version, postgres: postgres, redis: redis}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.service,
		"version": h.version,
	})
}

// Ready GET /health/ready. Answers 503 while postgres or redis is
// unreachable, with a per-store verdict in the details.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), readyProbeTimeout)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	if err := h.postgres.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "a backing store is unreachable",
				"details": checks,
			},
		})
	}

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": checks,
	})
}
