// Package web provides the HTTP server and handlers for the product
// catalog API: CSV upload ingestion plus listing and search over the
// stored products.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
	"github.com/catalogd/catalogd/internal/metrics"
	"github.com/catalogd/catalogd/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// pinger is implemented by stores with a live backend to check.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the catalog service.
type Server struct {
	cfg      *config.Config
	store    store.Store
	pipeline *catalog.Pipeline
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer wires the router, middleware, and routes around the given
// store and ingestion pipeline.
func NewServer(cfg *config.Config, st store.Store, pipeline *catalog.Pipeline) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		pipeline: pipeline,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(metrics.Middleware)
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.limiters = append(s.limiters, limiter)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			// Uploads are expensive; they get their own tighter budget.
			uploadLimiter := newRateLimiter(s.cfg.Rate.UploadsPerMinute, time.Minute)
			s.limiters = append(s.limiters, uploadLimiter)
			r.Use(uploadLimiter.middleware)
		}
		r.Post("/upload", s.handleUpload)
	})

	s.router.Get("/products", s.handleListProducts)
	s.router.Get("/products/search", s.handleSearchProducts)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its rate limiter sweepers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
