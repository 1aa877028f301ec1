package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/field-ops/support-desk/internal/api/http/handlers"
	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Entities       *handlers.EntitiesHandler
	Tickets        *handlers.TicketsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	MetricsHandler http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.MetricsHandler))
	}

	app.Post("/auth/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Get("/auth/verify", cfg.Users.Me)

	users := protected.Group("/users")
	users.Post("", auth.RequireRoles(domain.RoleAdmin), cfg.Users.CreateUser)
	users.Get("", auth.RequireRoles(domain.RoleAdmin), cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Patch("/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Users.UpdateUser)
	users.Delete("/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Users.DeactivateUser)

	protected.Post("/departments", auth.RequireRoles(domain.RoleAdmin), cfg.Entities.CreateDepartment)
	protected.Get("/departments", cfg.Entities.ListDepartments)
	protected.Post("/locations", auth.RequireRoles(domain.RoleAdmin), cfg.Entities.CreateLocation)
	protected.Get("/locations", cfg.Entities.ListLocations)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/mine", cfg.Tickets.ListMine)
	tickets.Get("/assigned/:entityKind/:entityId", cfg.Tickets.ListAssigned)
	tickets.Post("/closed-range", auth.RequireRoles(domain.RoleAdmin), cfg.Tickets.ListClosedInRange)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/resolution-time", cfg.Tickets.SetResolutionTime)
	tickets.Patch("/:id/comments", cfg.Tickets.AddComment)
	tickets.Patch("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Patch("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Patch("/:id/refer", auth.RequireRoles(domain.RoleAdmin), cfg.Tickets.ReferTicket)

	reports := protected.Group("/reports")
	reports.Get("/weekly/latest", auth.RequireRoles(domain.RoleAdmin), cfg.Reports.GetLatestWeekly)
	reports.Post("/weekly/range", auth.RequireRoles(domain.RoleAdmin), cfg.Reports.ListWeeklyInRange)
	reports.Post("/weekly/run", auth.RequireRoles(domain.RoleSuperadmin), cfg.Reports.TriggerWeeklyRun)
	reports.Get("/weekly/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Reports.GetWeekly)
	reports.Patch("/weekly/:id/clear-by-it", cfg.Reports.ClearByIT)
	reports.Patch("/weekly/:id/clear-by-monitoring", cfg.Reports.ClearByMonitoring)
	reports.Patch("/weekly/:id/clear-by-operations", cfg.Reports.ClearByOperations)
	reports.Get("/security/:id", cfg.Reports.GetSecurityReport)
	reports.Patch("/security/:id/submit", cfg.Reports.SubmitSecurityReport)
}
