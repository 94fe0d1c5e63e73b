// Package cache provides a thread-safe in-memory LRU cache with
// per-entry TTL. It backs the embedding cache: query embeddings repeat
// often and the embedding API is the most expensive per-call backend in
// the pipeline.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is an LRU cache with TTL expiry. Structural mutation (insert,
// eviction) is serialized by a mutex; reads take the same lock because
// a read also promotes the entry in LRU order.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time // overridable in tests
}

type entry struct {
	key       string
	value     any
	createdAt time.Time
}

// New creates a cache holding at most maxSize entries, each valid for
// ttl. A ttl of zero disables expiry.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key builds a deterministic cache key from the given parts.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached value for key, or (nil, false) when absent or
// expired. A hit promotes the entry to most recently used.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := el.Value.(*entry)
	if c.expired(e) {
		c.lru.Remove(el)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.lru.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry
// once at capacity.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		el.Value.(*entry).createdAt = c.now()
		c.lru.MoveToFront(el)
		return
	}

	for len(c.entries) >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}

	el := c.lru.PushFront(&entry{key: key, value: value, createdAt: c.now()})
	c.entries[key] = el
}

// Delete removes an entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.lru.Remove(el)
		delete(c.entries, key)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats reports hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) expired(e *entry) bool {
	if c.ttl == 0 {
		return false
	}
	return c.now().Sub(e.createdAt) > c.ttl
}
