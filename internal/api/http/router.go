package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hydrowatch/tank-service/internal/api/http/handlers"
	"github.com/hydrowatch/tank-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Users            *handlers.UsersHandler
	Readings         *handlers.ReadingsHandler
	Tickets          *handlers.TicketsHandler
	Units            *handlers.UnitsHandler
	AuthMiddleware   *auth.AuthMiddleware
	APIKeyMiddleware *auth.APIKeyMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	readings := api.Group("/readings")
	readings.Post("/receive", cfg.APIKeyMiddleware.Handle, cfg.Readings.Receive)
	readings.Get("/:tankId/history", cfg.AuthMiddleware.Handle, auth.RequireAuth(), cfg.Readings.History)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuth())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	units := api.Group("/units", cfg.AuthMiddleware.Handle, auth.RequireAuth())
	units.Post("/", auth.RequireAdmin(), cfg.Units.CreateUnit)
	units.Get("/", cfg.Units.ListUnits)
	units.Get("/:id", cfg.Units.GetUnit)
	units.Get("/:id/tanks", cfg.Units.ListTanks)

	tanks := api.Group("/tanks", cfg.AuthMiddleware.Handle, auth.RequireAuth())
	tanks.Get("/:id", cfg.Units.GetTank)
	tanks.Get("/:id/last-reading", cfg.Units.TankLastReading)
}
