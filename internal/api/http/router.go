package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldops/fieldservice/internal/api/http/handlers"
	"github.com/fieldops/fieldservice/internal/auth"
	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Clients        *handlers.ClientsHandler
	ModuleTypes    *handlers.ModuleTypesHandler
	Modules        *handlers.ModulesHandler
	Tickets        *handlers.TicketsHandler
	Documents      *handlers.DocumentsHandler
	Calendar       *handlers.CalendarHandler
	Routes         *handlers.RoutesHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// FilesRoot is served read-only under /files when set.
	FilesRoot string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}
	if cfg.FilesRoot != "" {
		app.Static("/files", cfg.FilesRoot)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	// The OAuth provider redirects the browser here without a bearer token,
	// so the callback sits ahead of the protected group.
	app.Get("/api/calendar/callback", cfg.Calendar.Callback)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	adminOnly := auth.RequireRole(domain.UserRoleAdmin)

	api.Get("/dashboard", cfg.Dashboard.Get)

	calendar := api.Group("/calendar")
	calendar.Get("/login", cfg.Calendar.Login)
	calendar.Post("/logout", cfg.Calendar.Logout)
	calendar.Get("/status", cfg.Calendar.Status)
	calendar.Get("/events", cfg.Calendar.Events)

	api.Get("/routes/today", cfg.Routes.Today)

	clients := api.Group("/clients")
	clients.Post("/", cfg.Clients.Create)
	clients.Get("/", cfg.Clients.List)
	clients.Get("/:id", cfg.Clients.Get)
	clients.Put("/:id", cfg.Clients.Update)
	clients.Delete("/:id", adminOnly, cfg.Clients.Delete)
	clients.Get("/:id/modules", cfg.Clients.Modules)

	moduleTypes := api.Group("/module-types")
	moduleTypes.Post("/", cfg.ModuleTypes.Create)
	moduleTypes.Get("/", cfg.ModuleTypes.List)
	moduleTypes.Get("/:id", cfg.ModuleTypes.Get)
	moduleTypes.Put("/:id", cfg.ModuleTypes.Update)
	moduleTypes.Delete("/:id", adminOnly, cfg.ModuleTypes.Delete)

	modules := api.Group("/modules")
	modules.Post("/", cfg.Modules.Create)
	modules.Get("/", cfg.Modules.List)
	modules.Get("/:id", cfg.Modules.Get)
	modules.Put("/:id", cfg.Modules.Update)
	modules.Delete("/:id", cfg.Modules.Delete)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/photos", cfg.Tickets.AddPhotos)

	documents := api.Group("/documents")
	documents.Post("/", cfg.Documents.Upload)
	documents.Get("/", cfg.Documents.List)
	documents.Delete("/:id", cfg.Documents.Delete)
}
