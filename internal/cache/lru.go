package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason tells an eviction callback why an entry left the cache.
type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
	EvictDeleted  EvictReason = "deleted"
)

// LRU cache with TTL and size-based eviction. Reads slide the expiry
// forward, so the TTL measures idle time.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	onEvict func(key string, data T, reason EvictReason)
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

type evicted[T any] struct {
	key    string
	data   T
	reason EvictReason
}

// NewLRUCache creates a new LRU cache with TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// OnEvict registers fn to be called, outside the cache lock, whenever an
// entry is dropped.
func (c *LRUCache[T]) OnEvict(fn func(key string, data T, reason EvictReason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a value and refreshes its expiry.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var out []evicted[T]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if now.After(item.expiresAt) {
		c.removeElement(elem)
		out = append(out, evicted[T]{key: item.key, data: item.data, reason: EvictExpired})
		return zero, false
	}

	item.expiresAt = now.Add(c.ttl)
	c.lru.MoveToFront(elem)
	return item.data, true
}

// Set stores a value in the cache
func (c *LRUCache[T]) Set(key string, data T) {
	var out []evicted[T]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		old := oldest.Value.(*cacheItem[T])
		c.removeElement(oldest)
		out = append(out, evicted[T]{key: old.key, data: old.data, reason: EvictCapacity})
	}
}

// Delete removes a key from the cache
func (c *LRUCache[T]) Delete(key string) {
	var out []evicted[T]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		item := elem.Value.(*cacheItem[T])
		c.removeElement(elem)
		out = append(out, evicted[T]{key: item.key, data: item.data, reason: EvictDeleted})
	}
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	var out []evicted[T]
	defer func() { c.notify(out) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		item := elem.Value.(*cacheItem[T])
		c.removeElement(elem)
		out = append(out, evicted[T]{key: item.key, data: item.data, reason: EvictExpired})
	}

	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache[T]) notify(out []evicted[T]) {
	if len(out) == 0 {
		return
	}
	c.mu.Lock()
	fn := c.onEvict
	c.mu.Unlock()
	if fn == nil {
		return
	}
	for _, e := range out {
		fn(e.key, e.data, e.reason)
	}
}
