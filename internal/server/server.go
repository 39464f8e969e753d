package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/kestrelhq/kestrel/internal/accounts"
	"github.com/kestrelhq/kestrel/internal/api/ws"
	"github.com/kestrelhq/kestrel/internal/auditquery"
	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/events"
	"github.com/kestrelhq/kestrel/internal/reports"
	"github.com/kestrelhq/kestrel/internal/server/middleware"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	orchestrator *auditquery.Orchestrator
	reports      *reports.Service
	accounts     *accounts.Service
	wsHub        *ws.Hub
	cfg          *config.Config

	cancelLimiters context.CancelFunc
}

// New creates a Server with all routes wired.
func New(cfg *config.Config, orchestrator *auditquery.Orchestrator, reportSvc *reports.Service, accountSvc *accounts.Service, pubsub *events.PubSub) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(pubsub)

	// Limiter cleanup goroutines stop when the server shuts down.
	limiterCtx, cancelLimiters := context.WithCancel(context.Background())

	s := &Server{
		router:         router,
		orchestrator:   orchestrator,
		reports:        reportSvc,
		accounts:       accountSvc,
		wsHub:          hub,
		cfg:            cfg,
		cancelLimiters: cancelLimiters,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Authenticated API routes on /api/v1.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.RateLimitByIP(limiterCtx, 100, 200))

		apiConfig := huma.DefaultConfig("Kestrel API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, orchestrator, reportSvc, accountSvc, auditquery.Options{
			MaxWait:      cfg.Query.DefaultMaxWait,
			PollInterval: cfg.Query.DefaultPollInterval,
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelLimiters()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
