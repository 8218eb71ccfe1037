// Package server is the composition root: it wires the database, services,
// handlers, and middleware together and owns the HTTP lifecycle.
//
// DEPENDENCY FLOW:
//
//	main.go reads config → server.New assembles:
//	  sqlite.DB → services (auth, board, moderation, vote) → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, the router gets handlers. Nothing
// below this package knows the concrete shape of anything above it.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/handler"
	"github.com/bupang/quest/internal/middleware"
	sqliteRepo "github.com/bupang/quest/internal/repository/sqlite"
	"github.com/bupang/quest/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	UploadDir string

	// Bootstrap admin account, ensured at every start.
	AdminEmail    string
	AdminPassword string

	// GitHub OAuth. When ClientID is empty the OAuth routes are not mounted
	// and password login is the only way in.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router, the database connection, and the config. The
// database is closed on shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph and ensures the bootstrap admin
// account exists before the server takes its first request.
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

	if err := s.ensureAdmin(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// ensureAdmin runs the idempotent bootstrap step: hash the configured admin
// password and create (or repair) the admin account. Runs on every start,
// so a demoted or deleted admin comes back on restart.
func (s *Server) ensureAdmin() error {
	if s.config.AdminEmail == "" || s.config.AdminPassword == "" {
		s.logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping bootstrap admin")
		return nil
	}

	hash, err := auth.NewPasswordService().Hash(s.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing bootstrap admin password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.EnsureAdmin(ctx, s.config.AdminEmail, "admin", hash); err != nil {
		return fmt.Errorf("ensuring bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin ensured", slog.String("email", s.config.AdminEmail))
	return nil
}

// setupRoutes wires middleware, services, handlers, and routes.
//
// MIDDLEWARE ORDER: RequestID → RealIP → Recoverer → metrics → logging.
// Recoverer sits above our middleware so a panicking handler still produces
// a 500 that gets counted and logged.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	// Services. One *DB satisfies every repository interface.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	boardService := service.NewBoardService(s.db, s.db, s.db, s.logger)
	moderationService := service.NewModerationService(s.db, s.db, s.db, s.logger)
	voteService := service.NewVoteService(s.db, s.logger)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	profileHandler := handler.NewProfileHandler(authService, boardService, s.config.UploadDir, s.logger)
	boardHandler := handler.NewBoardHandler(boardService, moderationService, s.logger)
	voteHandler := handler.NewVoteHandler(voteService, s.logger)
	moderationHandler := handler.NewModerationHandler(moderationService, s.logger)

	metrics := middleware.NewMetrics()

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.Instrument)
	s.router.Use(middleware.Logger(s.logger))

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	// Operational endpoints.
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Uploaded avatars are served as static files.
	s.router.Handle("/uploads/*",
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.config.UploadDir))))

	// GitHub OAuth, only when configured.
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/api", func(r chi.Router) {
		// Account.
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		// Public reads. OptionalAuth so logged-in callers see their votes.
		r.With(optionalAuth).Get("/questions", boardHandler.HandleListQuestions)
		r.With(optionalAuth).Get("/questions/{id}", boardHandler.HandleGetQuestion)
		r.Get("/users/{id}", profileHandler.HandlePublicProfile)

		// Everything below needs a session.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/me/stats", profileHandler.HandleMyStats)
			r.Put("/profile", profileHandler.HandleUpdateProfile)

			r.Post("/questions", boardHandler.HandleAskQuestion)
			r.Delete("/questions/{id}", boardHandler.HandleDeleteQuestion)
			r.Post("/questions/{id}/answers", boardHandler.HandlePostAnswer)
			r.Delete("/answers/{id}", boardHandler.HandleDeleteAnswer)

			r.Post("/vote", voteHandler.HandleVote)

			// Admin actions; the service enforces the role.
			r.Post("/questions/{id}/pin", moderationHandler.HandlePinQuestion)
			r.Post("/answers/{id}/pin", moderationHandler.HandlePinAnswer)
			r.Post("/users/{id}/ban", moderationHandler.HandleBanUser)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close the
// database.
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
