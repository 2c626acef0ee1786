package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLocMem(defaultTTL time.Duration) (*LocMem, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLocMem("test", defaultTTL)
	c.now = clock.now
	return c, clock
}

func TestLocMem_SetGetDelete(t *testing.T) {
	c, _ := newTestLocMem(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestLocMem_ReturnsCopies(t *testing.T) {
	c, _ := newTestLocMem(0)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestLocMem_Expiry(t *testing.T) {
	c, clock := newTestLocMem(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "default", []byte("x"), 0))
	require.NoError(t, c.Set(ctx, "short", []byte("y"), time.Second))

	clock.advance(2 * time.Second)
	_, err := c.Get(ctx, "short")
	require.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "default")
	require.NoError(t, err)

	clock.advance(time.Minute)
	_, err = c.Get(ctx, "default")
	require.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestLocMem_CullsWhenFull(t *testing.T) {
	c, clock := newTestLocMem(0)
	c.maxEntries = 3
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "forever", []byte("f"), 0))
	require.NoError(t, c.Set(ctx, "soon", []byte("s"), time.Second))
	require.NoError(t, c.Set(ctx, "later", []byte("l"), time.Hour))

	// Full: the entry closest to expiry goes first.
	require.NoError(t, c.Set(ctx, "new", []byte("n"), time.Hour))
	assert.Equal(t, 3, c.Len())
	_, err := c.Get(ctx, "soon")
	require.ErrorIs(t, err, ErrCacheMiss)

	// Expired entries are dropped before anything live.
	clock.advance(2 * time.Hour)
	require.NoError(t, c.Set(ctx, "fresh", []byte("r"), 0))
	_, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	_, err = c.Get(ctx, "fresh")
	require.NoError(t, err)
}

func TestLocMem_ConcurrentAccess(t *testing.T) {
	c, _ := newTestLocMem(time.Minute)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := strconv.Itoa(i*100 + j)
				_ = c.Set(ctx, key, []byte(key), 0)
				_, _ = c.Get(ctx, key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.LessOrEqual(t, c.Len(), DefaultMaxEntries)
}
