package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a LocMem cache before culling.
const DefaultMaxEntries = 300

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LocMem is a process-local cache guarded by a mutex.
type LocMem struct {
	name       string
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// NewLocMem creates an in-process cache. A zero defaultTTL means entries
// without an explicit ttl never expire.
func NewLocMem(name string, defaultTTL time.Duration) *LocMem {
	return &LocMem{
		name:       name,
		defaultTTL: defaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		entries:    make(map[string]entry),
	}
}

// Name returns the cache location.
func (c *LocMem) Name() string { return c.name }

// Get returns a copy of the stored value.
func (c *LocMem) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value.
func (c *LocMem) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.cullLocked()
	}
	c.entries[key] = e
	return nil
}

// Delete removes key.
func (c *LocMem) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (c *LocMem) Ping(context.Context) error { return nil }

// Close drops all entries.
func (c *LocMem) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *LocMem) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cullLocked drops expired entries, then the entry closest to expiry if the
// cache is still full. Entries without expiry are evicted last.
func (c *LocMem) cullLocked() {
	now := c.now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var (
		victim    string
		victimExp time.Time
		found     bool
	)
	for k, e := range c.entries {
		switch {
		case !found:
			victim, victimExp, found = k, e.expiresAt, true
		case victimExp.IsZero() && !e.expiresAt.IsZero():
			victim, victimExp = k, e.expiresAt
		case !e.expiresAt.IsZero() && e.expiresAt.Before(victimExp):
			victim, victimExp = k, e.expiresAt
		}
	}
	delete(c.entries, victim)
}
