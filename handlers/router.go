package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"orgdash/config"
	"orgdash/database"
	"orgdash/middleware"
	"orgdash/models"
)

// NewRouter wires every endpoint of the backend onto one chi router.
func NewRouter(cfg *config.Config, repo database.Repository, log *logrus.Logger) http.Handler {
	authHandler := NewAuthHandler(cfg, repo, log)
	orgHandler := NewOrganizationHandler(cfg, repo, log)
	teamHandler := NewTeamHandler(cfg, repo, log)
	userHandler := NewUserHandler(cfg, repo, log)
	taskHandler := NewTaskHandler(cfg, repo, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg))

	// Public routes
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.HealthCheck(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeSuccess(w, map[string]string{"status": "ok"})
	})
	router.Handle(cfg.MetricsPath, promhttp.Handler())
	router.Post("/auth/login", authHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(repo))

		r.Get("/supervisory-levels", userHandler.Levels)
		r.Get("/organizations", orgHandler.List)

		r.Route("/organizations/{id}", func(r chi.Router) {
			r.Get("/departments", orgHandler.ListDepartments)
			r.Get("/users", orgHandler.ListUsers)
			r.Get("/teams", orgHandler.ListTeams)
			r.Get("/dashboard", orgHandler.Dashboard)

			r.With(middleware.RequireRole(models.RoleAdmin)).Post("/departments", orgHandler.CreateDepartment)
			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleOverall)).Post("/users", orgHandler.RegisterUser)
		})

		// Team and subordinate management; per-team scope is checked in the handlers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOverall, models.RoleSupervisor))
			r.Post("/teams", teamHandler.Create)
			r.Delete("/teams/{id}", teamHandler.Delete)
			r.Post("/teams/{id}/members", teamHandler.AssignMembers)
			r.Delete("/teams/{id}/members", teamHandler.RemoveMembers)
			r.Post("/users/{id}/subordinates", userHandler.AssignSubordinates)
		})

		// Admin and Overall only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOverall))
			r.Patch("/users/{id}", userHandler.Update)
			r.Delete("/users/{id}", userHandler.Deactivate)
		})

		// Admin only routes
		r.With(middleware.RequireRole(models.RoleAdmin)).Post("/organizations", orgHandler.Create)

		r.Get("/tasks", taskHandler.List)
		r.Post("/tasks", taskHandler.Create)
		r.Post("/tasks/{id}/review", taskHandler.Review)
		r.Get("/tasks/{id}/comments", taskHandler.ListComments)
		r.Post("/tasks/{id}/comments", taskHandler.AddComment)
	})

	return router
}
