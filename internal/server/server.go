// Package server provides the HTTP server and routing for Quill.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/config"
	"github.com/quillbooks/quill/internal/database"
	"github.com/quillbooks/quill/internal/events"
	creditscorehandlers "github.com/quillbooks/quill/internal/modules/creditscore/handlers"
	forecasthandlers "github.com/quillbooks/quill/internal/modules/forecast/handlers"
	ledgerhandlers "github.com/quillbooks/quill/internal/modules/ledger/handlers"
)

// Config holds server configuration
type Config struct {
	Log                 zerolog.Logger
	BooksDB             *database.DB
	CacheDB             *database.DB
	Config              *config.Config
	EventBus            *events.Bus
	LedgerHandlers      *ledgerhandlers.Handler
	CreditScoreHandlers *creditscorehandlers.Handler
	ForecastHandlers    *forecasthandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	booksDB   *database.DB
	cacheDB   *database.DB
	cfg       *config.Config
	eventBus  *events.Bus
	handlers  Config
	startedAt time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		booksDB:   cfg.BooksDB,
		cacheDB:   cfg.CacheDB,
		cfg:       cfg.Config,
		eventBus:  cfg.EventBus,
		handlers:  cfg,
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Config.Port),
		Handler: s.router,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		eventsStreamHandler := NewEventsStreamHandler(s.eventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		systemHandlers := NewSystemHandlers(s.log, s.startedAt, s.booksDB, s.cacheDB)
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", systemHandlers.HandleDatabaseStats)
		})

		if s.handlers.LedgerHandlers != nil {
			s.handlers.LedgerHandlers.RegisterRoutes(r)
		}
		if s.handlers.CreditScoreHandlers != nil {
			s.handlers.CreditScoreHandlers.RegisterRoutes(r)
		}
		if s.handlers.ForecastHandlers != nil {
			s.handlers.ForecastHandlers.RegisterRoutes(r)
		}
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","uptime_seconds":%d}`, int(time.Since(s.startedAt).Seconds()))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
