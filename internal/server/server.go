// Package server is the composition root: it opens the store, wires
// repositories into services into handlers, mounts the authentication
// gate, and owns the HTTP server lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/tracker/internal/auth"
	"github.com/sakif/tracker/internal/authz"
	"github.com/sakif/tracker/internal/handler"
	"github.com/sakif/tracker/internal/middleware"
	sqliteRepo "github.com/sakif/tracker/internal/repository/sqlite"
	"github.com/sakif/tracker/internal/resolver"
	"github.com/sakif/tracker/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router, the database connection and the config. The
// database is closed when Start returns.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the store and wires the full dependency chain:
//
//	sqlite.DB → repositories → resolver/authz → services → handlers
//
// Services receive repository interfaces, handlers receive services, and
// the gate sits in front of every /api route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	users := s.db.Users()
	projects := s.db.Projects()
	contributors := s.db.Contributors()
	issues := s.db.Issues()
	comments := s.db.Comments()
	blacklist := s.db.Blacklist()

	res := resolver.New(projects, issues, comments)
	engine := authz.NewEngine(contributors)

	authService := service.NewAuthService(users, blacklist, tokens, passwords, s.logger)
	projectService := service.NewProjectService(projects, contributors, issues, users, res, engine, s.logger)
	issueService := service.NewIssueService(issues, comments, users, res, engine, s.logger)
	commentService := service.NewCommentService(comments, res, engine, s.logger)

	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectService)
	issueHandler := handler.NewIssueHandler(issueService)
	commentHandler := handler.NewCommentHandler(commentService)

	gate := auth.NewGate(tokens, users, auth.DefaultPublicPaths(), s.logger)
	metrics := middleware.NewMetrics()

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	// Clients trained on the original API send trailing slashes
	// ("/api/projects/3/"); both forms route the same.
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)

	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(gate.Middleware)

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/token", authHandler.Token)
		r.Post("/token/refresh", authHandler.Refresh)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/auth/account", authHandler.Account)
		r.Patch("/auth/account", authHandler.UpdateAccount)
		r.Delete("/auth/account", authHandler.DeleteAccount)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Patch("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)

				r.Get("/users", projectHandler.ListContributors)
				r.Post("/users", projectHandler.AddContributor)

				r.Route("/issues", func(r chi.Router) {
					r.Get("/", issueHandler.List)
					r.Post("/", issueHandler.Create)

					r.Route("/{issueID}", func(r chi.Router) {
						r.Get("/", issueHandler.Get)
						r.Patch("/", issueHandler.Update)
						r.Delete("/", issueHandler.Delete)

						r.Route("/comments", func(r chi.Router) {
							r.Get("/", commentHandler.List)
							r.Post("/", commentHandler.Create)

							r.Get("/{commentID}", commentHandler.Get)
							r.Patch("/{commentID}", commentHandler.Update)
							r.Delete("/{commentID}", commentHandler.Delete)
						})
					})
				})
			})
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on shutdown; tests that
// never call Start use it directly.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds before closing the store.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
