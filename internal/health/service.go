// Package health implements the health, version and metrics reports served
// by the API.
package health

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthmonitor/healthmonitor/internal/api/models"
	"github.com/healthmonitor/healthmonitor/internal/cache"
	"github.com/healthmonitor/healthmonitor/internal/user"
)

// ResponseTimeOK is reported as database.response_time when the ping succeeds.
const ResponseTimeOK = "OK"

// Service errors.
var (
	ErrNoDatabase  = errors.New("database not configured")
	ErrNoUserStore = errors.New("user store not configured")
)

// Pinger performs one database round-trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UserCounter reports user totals.
type UserCounter interface {
	Counts(ctx context.Context) (user.Counts, error)
}

// ServiceConfig holds configuration for the health service.
type ServiceConfig struct {
	Database    Pinger
	Users       UserCounter
	Cache       cache.Cache
	Environment string

	// Debug is echoed in health responses.
	Debug bool

	Logger zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service builds health, version and metrics reports.
type Service struct {
	db          Pinger
	users       UserCounter
	cache       cache.Cache
	environment string
	debug       bool
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a new health service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		db:          cfg.Database,
		users:       cfg.Users,
		cache:       cfg.Cache,
		environment: cfg.Environment,
		debug:       cfg.Debug,
		logger:      cfg.Logger,
		now:         now,
	}
}

// Health pings the database once. Any error degrades the report; it is never
// returned to the caller.
func (s *Service) Health(ctx context.Context) *models.Health {
	db := models.DatabaseHealth{
		Status:       models.HealthStatusHealthy,
		ResponseTime: ResponseTimeOK,
	}

	if err := s.ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("database health check failed")
		db = models.DatabaseHealth{
			Status:       models.HealthStatusUnhealthy,
			ResponseTime: err.Error(),
		}
	}

	dbHealthy := db.Status == models.HealthStatusHealthy
	status := models.HealthStatusHealthy
	if !dbHealthy {
		status = models.HealthStatusDegraded
	}

	return &models.Health{
		Status:      status,
		Timestamp:   models.Timestamp(s.now()),
		Version:     models.AppVersion,
		Environment: s.environment,
		Debug:       s.debug,
		Database:    db,
		Checks: models.HealthChecks{
			Database: dbHealthy,
			API:      true,
		},
	}
}

func (s *Service) ping(ctx context.Context) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	return s.db.Ping(ctx)
}

// Version returns the static version report.
func (s *Service) Version() *models.VersionInfo {
	return &models.VersionInfo{
		Version:     models.AppVersion,
		APIVersion:  models.APIVersion,
		Environment: s.environment,
	}
}

// Metrics runs the user count queries and checks cache availability.
// Count failures are returned unchanged; cache failures only mark the cache
// unavailable.
func (s *Service) Metrics(ctx context.Context) (*models.Metrics, error) {
	if s.users == nil {
		return nil, ErrNoUserStore
	}

	counts, err := s.users.Counts(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Metrics{
		Users: models.UserMetrics{
			Total:  counts.Total,
			Active: counts.Active,
		},
		Cache: models.CacheMetrics{
			Status: cache.Availability(ctx, s.cache),
		},
		Timestamp: models.Timestamp(s.now()),
	}, nil
}
