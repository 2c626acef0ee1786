package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmonitor/healthmonitor/internal/cache"
	"github.com/healthmonitor/healthmonitor/internal/config"
)

func TestNew_SelectsBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.CacheConfig
		want interface{}
	}{
		{"locmem", config.CacheConfig{Backend: config.CacheBackendLocMem, Location: "prod-cache"}, &cache.LocMem{}},
		{"redis", config.CacheConfig{Backend: config.CacheBackendRedis, RedisURL: "redis://" + mr.Addr() + "/0"}, &cache.Redis{}},
		{"dummy", config.CacheConfig{Backend: config.CacheBackendDummy}, cache.Dummy{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := cache.New(tt.cfg)
			require.NoError(t, err)
			defer c.Close()
			assert.IsType(t, tt.want, c)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := cache.New(config.CacheConfig{Backend: "memcached"})
	require.ErrorIs(t, err, config.ErrUnknownCacheBackend)

	_, err = cache.New(config.CacheConfig{Backend: config.CacheBackendRedis, RedisURL: "not a url"})
	require.Error(t, err)
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, cache.StatusUnavailable, cache.Availability(ctx, nil))
	assert.Equal(t, cache.StatusUnavailable, cache.Availability(ctx, cache.Dummy{}))
	assert.Equal(t, cache.StatusAvailable, cache.Availability(ctx, cache.NewLocMem("default", time.Minute)))
}

func TestDummy(t *testing.T) {
	ctx := context.Background()
	d := cache.Dummy{}

	require.NoError(t, d.Set(ctx, "k", []byte("v"), 0))
	_, err := d.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
	require.ErrorIs(t, d.Ping(ctx), cache.ErrCacheDisabled)
}
