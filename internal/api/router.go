// Package api provides the HTTP API for healthmonitor.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/healthmonitor/healthmonitor/internal/api/exception"
	"github.com/healthmonitor/healthmonitor/internal/api/handler"
	"github.com/healthmonitor/healthmonitor/internal/api/middleware"
	"github.com/healthmonitor/healthmonitor/internal/config"
)

// DefaultServiceName is used for tracing when RouterConfig.ServiceName is empty.
const DefaultServiceName = "healthmonitor-api"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Settings is required. It drives host validation, SSL redirect, CSRF
	// checks and the rate limit.
	Settings *config.Settings

	HealthService handler.HealthService

	// ExceptionHandler defaults to one logging to Logger.
	ExceptionHandler *exception.Handler
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	errs := cfg.ExceptionHandler
	if errs == nil {
		errs = exception.NewHandler(cfg.Logger)
	}

	settings := cfg.Settings
	security := settings.Security

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AllowedHosts(settings.AllowedHosts, security.UseXForwardedHost, settings.Debug))
	r.Use(middleware.SSLRedirect(security))
	r.Use(middleware.SecurityHeaders(security))
	r.Use(middleware.CSRFOriginCheck(security.CSRFTrustedOrigins, security))
	r.Use(middleware.ContentTypeJSON)

	// Set before routes so subrouters inherit them.
	r.NotFound(errs.NotFound())
	r.MethodNotAllowed(errs.MethodNotAllowed())

	healthHandler := handler.NewHealthHandler(cfg.HealthService)

	rateLimit := middleware.StandardRateLimit
	if n := settings.HTTP.RequestsPerMinute; n > 0 {
		rateLimit = middleware.PerMinute(n)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimit))

		get(r, "/health/", errs.Wrap(healthHandler.Health))
		get(r, "/version/", errs.Wrap(healthHandler.Version))
		get(r, "/metrics/", errs.Wrap(healthHandler.Metrics))
	})

	return r
}

// get registers h for pattern with and without its trailing slash.
func get(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Get(strings.TrimSuffix(pattern, "/"), h)
}
