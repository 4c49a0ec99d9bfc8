package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/http/handlers"
	"github.com/spec-kit/estate-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Houses  *handlers.HousesHandler
	Session *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes. Login, refresh and logout bypass the
// session verifier; everything under /api/houses requires it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	houses := app.Group("/api/houses", cfg.Session.Handle)
	houses.Post("/", cfg.Houses.Create)
	houses.Get("/", cfg.Houses.ListOwn)
	houses.Get("/search", cfg.Houses.Search)
	houses.Get("/:id", cfg.Houses.Get)
	houses.Put("/:id", cfg.Houses.Update)
	houses.Delete("/:id", cfg.Houses.Delete)
}
