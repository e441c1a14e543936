package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/task-tracker/app"
	"github.com/upb/task-tracker/handlers"
	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/middleware"
)

// resourceHandler is the CRUD surface shared by the entity handlers
type resourceHandler interface {
	HandleList(w http.ResponseWriter, r *http.Request)
	HandleGet(w http.ResponseWriter, r *http.Request)
	HandleCreate(w http.ResponseWriter, r *http.Request)
	HandleUpdate(w http.ResponseWriter, r *http.Request)
	HandleDelete(w http.ResponseWriter, r *http.Request)
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/", handlers.Index)

	// Health check endpoints
	var db handlers.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	gate := deps.Gate

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	r.Route("/auth", func(r chi.Router) {
		r.With(deps.LoginLimiter.Middleware).Post("/google", authHandler.HandleGoogleLogin)
		r.With(gate.Require(auth.AllowedRoles(auth.ResourceProfile, auth.ActionRead)...)).
			Get("/me", authHandler.HandleMe)
	})

	r.Route("/projects", resource(gate, auth.ResourceProject,
		handlers.NewProjectHandler(deps.ProjectService, deps.Logger)))
	r.Route("/tasks", resource(gate, auth.ResourceTask,
		handlers.NewTaskHandler(deps.TaskService, deps.Logger)))
	r.Route("/users", resource(gate, auth.ResourceUser,
		handlers.NewUserHandler(deps.UserService, deps.Logger)))
	r.Route("/roles", resource(gate, auth.ResourceRole,
		handlers.NewRoleHandler(deps.RoleService, deps.Logger)))

	return r
}

// resource mounts the CRUD routes of h, each behind the roles allowed for its action
func resource(gate *middleware.AccessGate, res auth.Resource, h resourceHandler) func(chi.Router) {
	guard := func(action auth.Action) func(http.Handler) http.Handler {
		return gate.Require(auth.AllowedRoles(res, action)...)
	}

	return func(r chi.Router) {
		r.With(guard(auth.ActionRead)).Get("/", h.HandleList)
		r.With(guard(auth.ActionCreate)).Post("/", h.HandleCreate)
		r.With(guard(auth.ActionRead)).Get("/{id}", h.HandleGet)
		r.With(guard(auth.ActionUpdate)).Put("/{id}", h.HandleUpdate)
		r.With(guard(auth.ActionDelete)).Delete("/{id}", h.HandleDelete)
	}
}
