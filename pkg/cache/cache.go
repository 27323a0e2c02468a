// Package cache provides a small bounded, TTL-aware in-memory cache used to
// memoize aggregate lookups. It is a pure latency optimization: callers must
// behave identically with or without it.
package cache

import (
	"sync"
	"time"
)

const (
	defaultMaxEntries = 256
	defaultTTL        = 15 * time.Minute
)

// Option configures a Cache.
type Option func(*settings)

type settings struct {
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// WithMaxEntries bounds the number of cached values. At capacity the
// oldest entry is evicted.
func WithMaxEntries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithTTL sets the time after which an entry is considered stale.
func WithTTL(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

type entry[V any] struct {
	value   V
	savedAt time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits      int64 `json:"hits" yaml:"hits"`
	Misses    int64 `json:"misses" yaml:"misses"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
}

// Cache is a mutex-guarded map with max-size and TTL bounds. Safe for
// concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	s       settings
	stats   Stats
}

func New[V any](opts ...Option) *Cache[V] {
	s := settings{
		maxEntries: defaultMaxEntries,
		ttl:        defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		s:       s,
	}
}

// Get returns the cached value for key if present and fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	if c.s.now().Sub(e.savedAt) > c.s.ttl {
		delete(c.entries, key)
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Set stores a value, evicting the oldest entry when at capacity.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.s.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = entry[V]{value: value, savedAt: c.s.now()}
}

// evictOldest drops the entry with the earliest save time. Linear scan is
// fine at the bounded sizes this cache runs at.
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.savedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.savedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Purge drops all entries.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}
