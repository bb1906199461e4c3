package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claim-service/internal/api/http/handlers"
	"github.com/spec-kit/claim-service/internal/auth"
	"github.com/spec-kit/claim-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Claims         *handlers.ClaimsHandler
	Users          *handlers.UsersHandler
	Notifications  *handlers.NotificationsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	adminOnly := auth.RequireRole(domain.RoleAdministrator)

	claims := app.Group("/claims", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	claims.Post("/", cfg.Claims.Create)
	claims.Get("/", cfg.Claims.List)
	// static paths before the :id wildcard
	claims.Get("/purgeable", adminOnly, cfg.Claims.ListPurgeable)
	claims.Get("/assignment/ranking", adminOnly, cfg.Claims.RankEmployees)
	claims.Get("/:id", cfg.Claims.Get)
	claims.Post("/:id/comments", cfg.Claims.AddComment)
	claims.Put("/:id/status", adminOnly, cfg.Claims.SetStatus)
	claims.Put("/:id/assign", adminOnly, cfg.Claims.Assign)
	claims.Delete("/:id", adminOnly, cfg.Claims.Purge)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, adminOnly)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.SetActive)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	notifications.Get("/", cfg.Notifications.List)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, adminOnly)
	reports.Get("/stats", cfg.Reports.Stats)
	reports.Get("/", cfg.Reports.Rows)
}
