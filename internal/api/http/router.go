package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/http/handlers"
	"github.com/spec-kit/issue-tracker/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Users         *handlers.UsersHandler
	Projects      *handlers.ProjectsHandler
	Teams         *handlers.TeamsHandler
	Issues        *handlers.IssuesHandler
	Notifications *handlers.NotificationsHandler
	ModeSwitch    *handlers.ModeSwitchHandler
	Admin         *handlers.AdminHandler

	Authenticate     fiber.Handler
	RequireAnyRole   fiber.Handler
	RequireMaster    fiber.Handler
	RequireAdminRole fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.Authenticate, cfg.Users.ChangePassword)

	users := app.Group("/users", cfg.Authenticate)
	users.Get("/me", cfg.Users.Me)
	users.Patch("/me", cfg.Users.UpdateProfile)

	projects := app.Group("/projects", cfg.Authenticate)
	projects.Post("", cfg.RequireAdminRole, cfg.Projects.Create)
	projects.Get("", cfg.Projects.List)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Patch("/:id", cfg.Projects.Update)
	projects.Post("/:id/archive", cfg.Projects.Archive)
	projects.Post("/:id/reactivate", cfg.Projects.Reactivate)

	teams := app.Group("/teams", cfg.Authenticate)
	teams.Post("", cfg.Teams.Create)
	teams.Get("", cfg.Teams.List)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Patch("/:id", cfg.Teams.Update)
	teams.Delete("/:id", cfg.Teams.Delete)

	issues := app.Group("/issues", cfg.Authenticate, cfg.RequireAnyRole)
	issues.Post("", cfg.Issues.Create)
	issues.Get("", cfg.Issues.List)
	issues.Get("/parents", cfg.Issues.AvailableParents)
	issues.Get("/code/:code", cfg.Issues.GetByCode)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Patch("/:id", cfg.Issues.Update)
	issues.Delete("/:id", cfg.Issues.Delete)
	issues.Get("/:id/activity", cfg.Issues.Activity)

	notifications := app.Group("/notifications", cfg.Authenticate)
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	admin := app.Group("/admin", cfg.Authenticate, cfg.RequireMaster)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Put("/users/:id/role", cfg.Admin.UpdateUserRole)
	admin.Get("/stats/summary", cfg.Admin.Summary)
	admin.Get("/mode-switch/history", cfg.Admin.ModeSwitchHistory)

	modeSwitch := app.Group("/mode-switch", cfg.Authenticate)
	modeSwitch.Post("/requests", cfg.ModeSwitch.Request)
	modeSwitch.Get("/requests", cfg.RequireMaster, cfg.ModeSwitch.ListPending)
	modeSwitch.Post("/requests/:id/decide", cfg.RequireMaster, cfg.ModeSwitch.Decide)
}

// AnyRole lists every role allowed to touch issue endpoints. OTHER stays read
// capable at the service layer; the route gate only requires a valid role.
var AnyRole = []domain.Role{domain.RoleAdmin, domain.RoleDeveloper, domain.RoleTester, domain.RoleOther}
