package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string]()
	c.Set("k", "v")

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_MissingKey(t *testing.T) {
	c := New[int]()

	got, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New[string](WithTTL(time.Minute), WithClock(func() time.Time { return clock() }))

	c.Set("k", "v")
	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	now := time.Now()
	c := New[int](WithMaxEntries(3), WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.Get("d")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New[int](WithMaxEntries(2))
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, got)
}

func TestCache_Stats(t *testing.T) {
	c := New[string]()
	c.Set("k", "v")

	c.Get("k")
	c.Get("k")
	c.Get("missing")

	s := c.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}

func TestCache_Purge(t *testing.T) {
	c := New[string]()
	c.Set("a", "1")
	c.Set("b", "2")

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](WithMaxEntries(64))
	done := make(chan struct{})

	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%32)
				c.Set(key, i)
				c.Get(key)
			}
		}(w)
	}

	for w := 0; w < 8; w++ {
		<-done
	}
	assert.LessOrEqual(t, c.Len(), 64)
}
