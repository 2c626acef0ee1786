// Package cache provides the key/value cache backends selectable from
// settings: an in-process map, Redis, or a disabled dummy.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthmonitor/healthmonitor/internal/config"
)

// Cache errors.
var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDisabled = errors.New("cache disabled")
	ErrCircuitOpen   = errors.New("cache circuit breaker is open")
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Name identifies the backend instance.
	Name() string

	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendLocMem:
		return NewLocMem(cfg.Location, cfg.DefaultTTL), nil
	case config.CacheBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return NewRedis(redis.NewClient(opts), RedisConfig{
			Prefix:     cfg.Location,
			DefaultTTL: cfg.DefaultTTL,
			Breaker:    DefaultBreakerConfig("cache-" + cfg.Location),
		}), nil
	case config.CacheBackendDummy:
		return Dummy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCacheBackend, cfg.Backend)
	}
}

// Status strings reported by Availability.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Availability maps a possibly nil cache to a status string. It never fails.
func Availability(ctx context.Context, c Cache) string {
	if c == nil {
		return StatusUnavailable
	}
	if err := c.Ping(ctx); err != nil {
		return StatusUnavailable
	}
	return StatusAvailable
}

// Dummy is a cache that stores nothing and is never available.
type Dummy struct{}

// Name returns "dummy".
func (Dummy) Name() string { return config.CacheBackendDummy }

// Get always misses.
func (Dummy) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

// Set discards the value.
func (Dummy) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (Dummy) Delete(context.Context, string) error { return nil }

// Ping reports ErrCacheDisabled.
func (Dummy) Ping(context.Context) error { return ErrCacheDisabled }

// Close does nothing.
func (Dummy) Close() error { return nil }
