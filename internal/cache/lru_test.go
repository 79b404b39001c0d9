package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(t *testing.T, size int, ttl time.Duration) (*LRUCache[string], *fakeClock, *[]EvictReason) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.Now
	var reasons []EvictReason
	c.OnEvict(func(_ string, _ string, r EvictReason) {
		reasons = append(reasons, r)
	})
	return c, clock, &reasons
}

func TestLRUCapacityEviction(t *testing.T) {
	c, _, reasons := newTestCache(t, 2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	_, ok := c.Get("a") // a is now most recent
	require.True(t, ok)
	c.Set("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, []EvictReason{EvictCapacity}, *reasons)
}

func TestLRUSlidingExpiry(t *testing.T) {
	c, clock, reasons := newTestCache(t, 10, time.Minute)

	c.Set("a", "1")
	clock.Advance(50 * time.Second)
	_, ok := c.Get("a")
	require.True(t, ok)

	clock.Advance(50 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok, "read should have refreshed the expiry")

	clock.Advance(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []EvictReason{EvictExpired}, *reasons)
}

func TestLRUCleanExpiredAndDelete(t *testing.T) {
	c, clock, reasons := newTestCache(t, 10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	clock.Advance(2 * time.Minute)
	c.Set("c", "3")

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	c.Delete("c")
	c.Delete("missing")
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, []EvictReason{EvictExpired, EvictExpired, EvictDeleted}, *reasons)
}

func TestLRUEvictCallbackMayUseCache(t *testing.T) {
	c := NewLRUCache[int](1, time.Minute)
	sizes := make(chan int, 1)
	c.OnEvict(func(string, int, EvictReason) {
		sizes <- c.Size() // must not deadlock
	})
	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 1, <-sizes)
}

func TestManagerCleanNowAndStop(t *testing.T) {
	c, clock, _ := newTestCache(t, 10, time.Minute)
	c.Set("a", "1")
	clock.Advance(time.Hour)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop() // idempotent
}
