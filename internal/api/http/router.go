package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Receive *handlers.ReceiveHandler
	Tickets *handlers.TicketsHandler
	Session *handlers.SessionHandler
	KeyAuth *auth.APIKeyMiddleware
}

// RegisterRoutes wires HTTP routes. The /receive surface is deliberately
// unauthenticated: the one-call network does not sign its deliveries.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/receive/:eventType", cfg.Receive.Receive)
	app.Get("/receive", cfg.Receive.Instruct)
	app.Get("/receive/:eventType", cfg.Receive.Instruct)

	api := app.Group("/api", cfg.KeyAuth.Handle)
	api.Post("/session", cfg.Session.CreateSession)

	anyRole := auth.RequireRole(domain.RoleClient, domain.RoleViewer, domain.RoleAdmin)
	api.Get("/tickets", anyRole, cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", anyRole, cfg.Tickets.GetTicket)
	api.Get("/tickets/:id/responses", anyRole, cfg.Tickets.ListResponses)
	api.Post("/tickets/:id/performed", auth.RequireRole(domain.RoleClient, domain.RoleAdmin), cfg.Tickets.TogglePerformed)
	api.Delete("/tickets/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.DeleteTicket)
	api.Get("/metrics", auth.RequireRole(domain.RoleAdmin), cfg.Health.Metrics)
}
