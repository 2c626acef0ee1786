// Package main provides the entrypoint for the healthmonitor API server.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthmonitor/healthmonitor/internal/api"
	"github.com/healthmonitor/healthmonitor/internal/api/exception"
	"github.com/healthmonitor/healthmonitor/internal/api/middleware"
	"github.com/healthmonitor/healthmonitor/internal/api/models"
	"github.com/healthmonitor/healthmonitor/internal/cache"
	"github.com/healthmonitor/healthmonitor/internal/config"
	"github.com/healthmonitor/healthmonitor/internal/database"
	"github.com/healthmonitor/healthmonitor/internal/health"
	"github.com/healthmonitor/healthmonitor/internal/logging"
	"github.com/healthmonitor/healthmonitor/internal/telemetry"
	"github.com/healthmonitor/healthmonitor/internal/user"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = models.AppVersion
	BuildTime = "unknown"
)

const (
	serviceName     = "healthmonitor-api"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		// The configured logger may not exist yet.
		log := startupLogger(os.Stderr)
		log.Fatal().Err(err).Msg("healthmonitor api failed")
	}
}

func startupLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func run() error {
	settings, err := config.Load(os.Getenv("SETTINGS_FILE"))
	if err != nil {
		return err
	}

	root, logFile, err := logging.New(logging.Options{
		Config:  settings.Logging,
		Service: serviceName,
		Version: Version,
	})
	if err != nil {
		return err
	}
	defer logFile.Close() //nolint:errcheck // nothing useful to do on close failure

	log := logging.Named(root, logging.NameServer)
	appLog := logging.Named(root, logging.NameHealthMonitor)

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", settings.Environment()).
		Str("profile", string(settings.Profile)).
		Bool("debug", settings.Debug).
		Msg("starting healthmonitor API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromSettings(settings, serviceName, Version))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", settings.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}

	// Connect to database. If it stays unreachable the API still starts and
	// health checks report degraded.
	dbConfig := database.ConfigFromSettings(settings.Database)
	pool, err := database.Connect(ctx, dbConfig, func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retry_in", next).Msg("database not ready")
	})
	if err != nil {
		log.Error().Err(err).Msg("database unavailable at start-up")
		if pool, err = database.Open(ctx, dbConfig); err != nil {
			return err
		}
	} else {
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	}
	defer pool.Close()

	store, err := cache.New(settings.Cache)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // best effort on shutdown
	if err := store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("backend", settings.Cache.Backend).Msg("cache unavailable")
	}

	userService := user.NewService(user.NewPostgresRepository(pool))

	healthService := health.NewService(health.ServiceConfig{
		Database:    database.NewChecker(pool),
		Users:       userService,
		Cache:       store,
		Environment: settings.Environment(),
		Debug:       settings.EnvDebug,
		Logger:      appLog,
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		Settings:         settings,
		HealthService:    healthService,
		ExceptionHandler: exception.NewHandler(appLog),
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(settings.HTTP.Port),
		Handler:      router,
		ReadTimeout:  settings.HTTP.ReadTimeout,
		WriteTimeout: settings.HTTP.WriteTimeout,
		IdleTimeout:  settings.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
