// Package server provides HTTP server management and lifecycle handling for the dashboard.
// It includes server setup, middleware configuration, route management, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/aldeia/relatos-dashboard/config"
	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const rateLimiterCleanupInterval = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	config      *config.Config
	handler     interfaces.HTTPHandler
	sessions    interfaces.SessionManager
	rateLimiter *RateLimiter
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler, sessions interfaces.SessionManager) *Server {
	router := chi.NewRouter()

	readHeader, upload := timeouts(cfg)

	server := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Address + ":" + cfg.Port,
			ReadHeaderTimeout: readHeader,
			ReadTimeout:       upload,
			WriteTimeout:      upload + cfg.UpstreamTimeout + 15*time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router:      router,
		config:      cfg,
		handler:     handler,
		sessions:    sessions,
		rateLimiter: NewRateLimiter(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// timeouts returns the header and whole-request read timeouts, with
// defaults for unset values.
func timeouts(cfg *config.Config) (readHeader, upload time.Duration) {
	readHeader, upload = cfg.ReadHeaderTimeout, cfg.UploadTimeout
	if readHeader <= 0 {
		readHeader = 10 * time.Second
	}
	if upload <= 0 {
		upload = 10 * time.Minute
	}
	return readHeader, upload
}

// Handler returns the root handler with all middleware and routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.IsProduction() {
		s.router.Use(BlockDirectAccessMiddleware) // before RealIPMiddleware to see the peer address
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/session/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.sessions))

			r.Post("/session/logout", h.Logout)
			r.Get("/session/me", h.Me)

			r.Get("/reports/summary", h.ReportSummary)
			r.Get("/reports/overview", h.ReportOverview)
			r.Get("/reports/symptoms", h.ReportSymptoms)
			r.Get("/reports/categories", h.ReportCategories)
			r.Get("/reports/indigenous-terms", h.ReportIndigenousTerms)
			r.Get("/reports/timeline", h.ReportTimeline)
			r.Get("/reports/timeline/chart", h.TimelineChart)
			r.Get("/reports/export.pdf", h.ExportReportPDF)
			r.Post("/reports/refresh", h.RefreshReport)
			r.Get("/reports/{kind}/{label}", h.ReportDrillDown)

			r.Get("/cases", h.ListCases)
			r.Post("/cases/text", h.SubmitText)
			r.Post("/cases/audio", h.SubmitAudio)
			r.Get("/cases/{id}", h.GetCase)
			r.Put("/cases/{id}", h.UpdateCase)
			r.Delete("/cases/{id}", h.DeleteCase)
			r.Put("/cases/{id}/structured-data", h.UpdateStructuredData)
			r.Patch("/cases/{id}/symptoms", h.EditSymptoms)
			r.Get("/cases/{id}/explanation", h.GetExplanation)
			r.Post("/cases/{id}/explanation", h.Explain)
		})
	})
}

// Start starts the server
func (s *Server) Start() error {
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}
	s.rateLimiter.Start(rateLimiterCleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
