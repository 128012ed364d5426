package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ruralhealth/internal/auth"
	"ruralhealth/internal/config"
	"ruralhealth/internal/kv"
	"ruralhealth/internal/llm"
	"ruralhealth/internal/ports"
	"ruralhealth/internal/storage"
)

// Deps are the collaborators behind the API routes.
type Deps struct {
	Config      config.ServerConfig
	Store       *kv.Store
	Tokens      *auth.Tokens
	Health      *llm.Health
	Transcriber ports.Transcriber
	// TranscriberName is reported as powered_by on transcriptions.
	TranscriberName string
	Objects         *storage.Local
	Log             *slog.Logger
}

// Server represents the API server
type Server struct {
	deps   Deps
	router chi.Router
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

func New(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Config.MaxUploadBytes <= 0 {
		deps.Config.MaxUploadBytes = 10 << 20
	}
	s := &Server{
		deps:   deps,
		router: chi.NewRouter(),
		log:    deps.Log,
		now:    time.Now,
		newID:  newID,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)

	origins := s.deps.Config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/files/*", s.handleFile)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/notifications/ws", s.handleNotificationFeed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", s.handleSignup)
				r.Post("/login", s.handleLogin)
				r.With(s.requireAuth).Get("/profile", s.handleProfile)
			})

			r.Route("/ai", func(r chi.Router) {
				r.Post("/chat", s.handleChat)
				r.Post("/symptom-checker", s.handleSymptoms)
				r.Post("/medication-checker", s.handleMedications)
				r.Get("/test", s.handleAITest)

				r.Group(func(r chi.Router) {
					r.Use(s.requireAuth)
					r.Post("/analyze-image", s.handleAnalyzeImage)
					r.Get("/image-history", s.handleImageHistory)
					r.Post("/transcribe", s.handleTranscribe)
				})
			})

			r.Post("/translate", s.handleTranslate)
			r.With(s.requireAuth).Get("/notifications", s.handleNotifications)
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.deps.Config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		s.log.Warn("kv ping failed", "err", err)
		status = "degraded"
	}
	respond(w, http.StatusOK, map[string]any{
		"status":            status,
		"timestamp":         s.now().UTC(),
		"service":           "rural-health-server",
		"ai_enabled":        s.deps.Health.Configured(),
		"openai_configured": s.deps.Health.Configured(),
	})
}
