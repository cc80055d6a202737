package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Metrics   *handlers.MetricsHandler
	Dashboard *handlers.DashboardHandler
	Tickets   *handlers.TicketsHandler
	Tagging   *handlers.TaggingHandler
	Summaries *handlers.SummariesHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Get("/dashboard", cfg.Dashboard.Get)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/export.csv", cfg.Tickets.ExportCSV)
	tickets.Post("/:id/tag", cfg.Tickets.AssignTag)

	app.Post("/tagging/auto", cfg.Tagging.AutoTag)

	app.Get("/summaries", cfg.Summaries.List)
	app.Post("/summaries", cfg.Summaries.Create)
}
