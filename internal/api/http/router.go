package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/api/http/handlers"
	"github.com/desaconnect/complaint-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Submissions      *handlers.SubmissionsHandler
	AdminSubmissions *handlers.AdminSubmissionsHandler
	Stats            *handlers.StatsHandler
	Roster           *handlers.RosterHandler
	Auth             *handlers.AuthHandler
	Guard            *auth.Guard
	UploadDir        string
}

// RegisterRoutes wires HTTP routes. Everything below /admin sits behind
// the guard; submission intake and tracking are intentionally public.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/submissions", cfg.Submissions.Create)
	app.Get("/submissions/track/:code", cfg.Submissions.Track)

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	authGroup := app.Group("/auth/admin")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	admin := app.Group("/admin", cfg.Guard.RequireAdmin)

	admin.Get("/stats", cfg.Stats.Get)

	admin.Get("/submissions", cfg.AdminSubmissions.List)
	admin.Get("/submissions/:id", cfg.AdminSubmissions.Get)
	admin.Patch("/submissions/:id/status", cfg.AdminSubmissions.UpdateStatus)
	admin.Patch("/submissions/:id/priority", cfg.AdminSubmissions.UpdatePriority)
	admin.Post("/submissions/:id/comments", cfg.AdminSubmissions.AddComment)
	admin.Patch("/submissions/:id/assignee", cfg.AdminSubmissions.Assign)
	admin.Delete("/submissions/:id", cfg.AdminSubmissions.Delete)

	admin.Get("/roster", cfg.Roster.List)
	admin.Post("/roster", cfg.Roster.Add)
	admin.Post("/roster/batch", cfg.Roster.BatchAdd)
	admin.Delete("/roster/:email", cfg.Roster.Remove)
}
