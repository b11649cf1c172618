package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/deskworks/service-desk/internal/api/http/handlers"
	"github.com/deskworks/service-desk/internal/auth"
	"github.com/deskworks/service-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Entries        *handlers.EntriesHandler
	Views          *handlers.ViewsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Prometheus, when set, is served unauthenticated at /metrics for the
	// scraper.
	Prometheus nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Prometheus != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Prometheus))
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/calendar", cfg.Views.Calendar)
	admin.Get("/calendar/digest", cfg.Views.CalendarDigest)
	admin.Get("/stats", cfg.Views.Stats)
	admin.Get("/metrics", cfg.Health.Metrics)

	api.Get("/replies/unseen", cfg.Views.Unseen)

	for segment, kind := range handlers.KindSegments {
		registerEntryRoutes(api.Group("/"+segment, handlers.WithKind(kind)), cfg.Entries)
	}
}

func registerEntryRoutes(entries fiber.Router, h *handlers.EntriesHandler) {
	entries.Post("/", auth.RequireRole(domain.RoleCustomer), h.Create)
	entries.Get("/", h.List)
	entries.Get("/:id", h.Get)
	entries.Post("/:id/notes", h.AddNote)
	entries.Put("/:id/timeline/:index/seen", h.MarkSeen)

	entries.Put("/:id/status", auth.RequireAdmin(), h.ChangeStatus)
	entries.Put("/:id/visit", auth.RequireAdmin(), h.AssignVisit)
	entries.Post("/:id/replies", auth.RequireAdmin(), h.Reply)
	entries.Delete("/:id", auth.RequireAdmin(), h.Delete)
}
