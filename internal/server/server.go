// Package server exposes the pricing core over HTTP: price calculation
// and comparison, opportunity batches, rule processing and toggles, the
// optimization trigger and the audit trail.
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

	"github.com/amitpo23/medici-pricing/internal/inventory"
	"github.com/amitpo23/medici-pricing/internal/opportunity"
	"github.com/amitpo23/medici-pricing/internal/optimizer"
	"github.com/amitpo23/medici-pricing/internal/pricing"
	"github.com/amitpo23/medici-pricing/internal/rules"
)

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	DevMode bool

	Pricer    *pricing.Engine
	Scorer    *opportunity.Scorer
	Rules     *rules.Engine
	Worker    *optimizer.Worker
	Inventory *inventory.Repository
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	pricer    *pricing.Engine
	scorer    *opportunity.Scorer
	rules     *rules.Engine
	worker    *optimizer.Worker
	inventory *inventory.Repository
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		pricer:    cfg.Pricer,
		scorer:    cfg.Scorer,
		rules:     cfg.Rules,
		worker:    cfg.Worker,
		inventory: cfg.Inventory,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// The optimization trigger can take a while over a full batch
	s.router.Use(middleware.Timeout(120 * time.Second))

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
		r.Route("/pricing", func(r chi.Router) {
			r.Post("/calculate", s.handleCalculatePrice)
			r.Post("/compare", s.handleCompareStrategies)
		})

		r.Route("/opportunities", func(r chi.Router) {
			r.Post("/batch", s.handleOpportunityBatch)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Put("/{ruleID}", s.handleToggleRule)
			r.Get("/history", s.handleDecisionHistory)
			r.Post("/process/{itemID}", s.handleProcessItem)
			r.Post("/batch", s.handleProcessBatch)
		})

		r.Route("/optimize", func(r chi.Router) {
			r.Post("/run", s.handleOptimizeNow)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/{itemID}", s.handleGetItem)
		})

		r.Get("/audit", s.handleListAudit)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
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
