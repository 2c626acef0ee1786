// Package database provides PostgreSQL connection management.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthmonitor/healthmonitor/internal/config"
)

// Config holds database connection configuration.
type Config struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	RuntimeParams   map[string]string
}

// ConfigFromSettings creates a Config from the loaded settings.
func ConfigFromSettings(s config.DatabaseConfig) Config {
	return Config{
		URL:             s.URL,
		Host:            s.Host,
		Port:            s.Port,
		User:            s.User,
		Password:        s.Password,
		Database:        s.Name,
		SSLMode:         s.SSLMode,
		MaxOpenConns:    s.MaxOpenConns,
		MinConns:        s.MinConns,
		ConnMaxLifetime: s.ConnMaxLifetime,
		ConnectTimeout:  s.ConnectTimeout,
		RuntimeParams:   s.Options,
	}
}

// ConnectionString returns the PostgreSQL connection string.
// A configured URL is returned as is.
func (c Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// PoolConfig parses the connection string and applies pool limits and
// runtime parameters. MinConns is clamped to the pool's MaxConns.
func (c Config) PoolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if c.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(c.MaxOpenConns) //nolint:gosec // bounded by config
	}
	if c.MinConns > 0 {
		poolConfig.MinConns = min(int32(c.MinConns), poolConfig.MaxConns) //nolint:gosec // bounded by config
	}
	if c.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = c.ConnMaxLifetime
	}
	for k, v := range c.RuntimeParams {
		poolConfig.ConnConfig.RuntimeParams[k] = v
	}

	return poolConfig, nil
}

// Connect creates a new database connection pool, retrying with exponential
// backoff until ConnectTimeout elapses. notify, if non-nil, is called before
// each retry.
func Connect(ctx context.Context, cfg Config, notify backoff.Notify) (*pgxpool.Pool, error) {
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}

	// A zero ConnectTimeout means a single attempt.
	var b backoff.BackOff = &backoff.StopBackOff{}
	if cfg.ConnectTimeout > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 500 * time.Millisecond
		eb.MaxInterval = 5 * time.Second
		eb.MaxElapsedTime = cfg.ConnectTimeout
		b = eb
	}

	var pool *pgxpool.Pool
	operation := func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create connection pool: %w", err))
		}

		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("ping database: %w", err)
		}

		pool = p
		return nil
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}

	return pool, nil
}

// Open creates a pool without checking connectivity. Connections are made on
// first use, so a database that is down at start-up shows up as a degraded
// health report instead of a crash. MinConns is ignored so the pool does not
// keep dialing in the background.
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	poolConfig.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrUnexpectedPingResult is returned when SELECT 1 yields something other than 1.
var ErrUnexpectedPingResult = errors.New("unexpected result from SELECT 1")

// Checker verifies database connectivity with a single round-trip.
type Checker struct {
	q Querier
}

// NewChecker creates a Checker using the given querier.
func NewChecker(q Querier) *Checker {
	return &Checker{q: q}
}

// Ping executes SELECT 1. Driver errors are returned unwrapped so their
// message can be surfaced verbatim.
func (c *Checker) Ping(ctx context.Context) error {
	var one int
	if err := c.q.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return err
	}
	if one != 1 {
		return ErrUnexpectedPingResult
	}
	return nil
}
