package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"todolist/backend/internal/config"
	"todolist/backend/internal/security"
	authusecase "todolist/backend/internal/usecase/auth"
	projectusecase "todolist/backend/internal/usecase/project"
	userusecase "todolist/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Auth     *authusecase.Service
	Users    *userusecase.Service
	Projects *projectusecase.Service
	// Ready reports storage health for /health. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	services   Services
	policy     *security.Policy
	logger     *slog.Logger
	addr       string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.HTTPConfig, services Services, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy, err := security.NewPolicy(security.DefaultRules()...)
	if err != nil {
		return nil, fmt.Errorf("building access policy: %w", err)
	}

	srv := &Server{
		router:   chi.NewRouter(),
		services: services,
		policy:   policy,
		logger:   logger,
		addr:     cfg.Addr(),
	}
	srv.routes(cfg.AllowedOrigins)

	srv.httpServer = &http.Server{
		Addr:         srv.addr,
		Handler:      srv.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return srv, nil
}

func (s *Server) routes(allowedOrigins []string) {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(withLogging(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(security.Gate(s.services.Auth, s.logger))
	r.Use(s.policy.Enforce(s.writeDomainError, s.logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v0", func(r chi.Router) {
		r.Get("/hello", s.handleHello)
		r.Get("/helloAuthenticated", s.handleHelloAuthenticated)
		r.Get("/admin", s.handleAdminInfo)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/registration", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Patch("/change-password", s.handleChangePassword)
		})

		r.Get("/users/me", s.handleCurrentUser)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Patch("/", s.handleUpdateProject)
				r.Delete("/", s.handleDeleteProject)
				r.Route("/tasks", func(r chi.Router) {
					r.Get("/", s.handleListTasks)
					r.Post("/", s.handleCreateTask)
					r.Route("/{taskID}", func(r chi.Router) {
						r.Get("/", s.handleGetTask)
						r.Patch("/", s.handleUpdateTask)
						r.Delete("/", s.handleDeleteTask)
						r.Get("/subtasks", s.handleListSubtasks)
						r.Post("/subtasks", s.handleCreateSubtask)
					})
				})
			})
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", s.handleAdminListUsers)
			r.Get("/{userID}", s.handleAdminGetUser)
			r.Delete("/{userID}", s.handleAdminDeleteUser)
			r.Put("/{userID}/roles", s.handleAdminSetRoles)
		})
	})
}

// Handler exposes the fully wired handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
