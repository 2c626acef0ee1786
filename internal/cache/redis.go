package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// RedisConfig configures a Redis cache.
type RedisConfig struct {
	// Prefix is prepended to every key as "<prefix>:".
	Prefix string

	// DefaultTTL applies when Set is called with a zero ttl.
	DefaultTTL time.Duration

	Breaker BreakerConfig
}

// Redis is a cache backed by a Redis server. Every call goes through a
// circuit breaker so an unreachable server fails fast.
type Redis struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, cfg RedisConfig) *Redis {
	return &Redis{
		client:     client,
		prefix:     cfg.Prefix,
		defaultTTL: cfg.DefaultTTL,
		cb:         newBreaker[[]byte](cfg.Breaker),
	}
}

// Name returns the key prefix, or "redis" when none is set.
func (c *Redis) Name() string {
	if c.prefix == "" {
		return "redis"
	}
	return c.prefix
}

func (c *Redis) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get fetches key.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.cb.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return b, err
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return val, nil
}

// Set stores value with ttl, or the default ttl when zero.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, c.key(key), value, ttl).Err()
	})
	return breakerError(err)
}

// Delete removes key.
func (c *Redis) Delete(ctx context.Context, key string) error {
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, c.key(key)).Err()
	})
	return breakerError(err)
}

// Ping sends PING to the server.
func (c *Redis) Ping(ctx context.Context) error {
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("redis ping: %w", breakerError(err))
	}
	return nil
}

// State returns the circuit breaker state.
func (c *Redis) State() gobreaker.State {
	return c.cb.State()
}

// Close closes the underlying client.
func (c *Redis) Close() error {
	return c.client.Close()
}
