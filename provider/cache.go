package provider

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// cacheEntry is a cached value with its LRU bookkeeping
type cacheEntry[V any] struct {
	key          string
	value        V
	createdAt    time.Time
	lastAccessed time.Time
	listElement  *list.Element
}

// CacheStats represents cache performance metrics
type CacheStats struct {
	Size        int           `json:"size"`
	MaxSize     int           `json:"max_size"`
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Evictions   int64         `json:"evictions"`
	TTLExpiries int64         `json:"ttl_expiries"`
	HitRatio    float64       `json:"hit_ratio"`
	TTL         time.Duration `json:"ttl"`
}

// LRUCache is a size-bounded, optionally expiring cache safe for concurrent use.
// It holds compiled condition patterns and configured gateway clients.
type LRUCache[V any] struct {
	entries     map[string]*cacheEntry[V]
	accessOrder *list.List // most recent at front
	maxSize     int
	ttl         time.Duration
	mu          sync.Mutex

	hits        int64
	misses      int64
	evictions   int64
	ttlExpiries int64
}

// NewLRUCache creates a cache holding at most maxSize entries. A ttl of 0 disables expiry.
func NewLRUCache[V any](maxSize int, ttl time.Duration) *LRUCache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LRUCache[V]{
		entries:     make(map[string]*cacheEntry[V]),
		accessOrder: list.New(),
		maxSize:     maxSize,
		ttl:         ttl,
	}
}

// GatewayCacheKey builds the cache key for a configured gateway client
func GatewayCacheKey(providerName, environment string) string {
	return strings.ToLower(providerName) + "-" + strings.ToLower(environment)
}

// Get retrieves a value from cache
func (c *LRUCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return zero, false
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		c.deleteEntryUnsafe(entry)
		c.ttlExpiries++
		c.misses++
		return zero, false
	}

	entry.lastAccessed = time.Now()
	c.accessOrder.MoveToFront(entry.listElement)

	c.hits++
	return entry.value, true
}

// Set stores a value in cache, evicting the least recently used entry when full
func (c *LRUCache[V]) Set(key string, value V) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.entries[key]; exists {
		existing.value = value
		existing.createdAt = now
		existing.lastAccessed = now
		c.accessOrder.MoveToFront(existing.listElement)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRUUnsafe()
	}

	entry := &cacheEntry[V]{
		key:          key,
		value:        value,
		createdAt:    now,
		lastAccessed: now,
	}
	entry.listElement = c.accessOrder.PushFront(entry)
	c.entries[key] = entry
}

// Delete removes a value from cache
func (c *LRUCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		c.deleteEntryUnsafe(entry)
	}
}

// DeleteByPrefix removes every entry whose key starts with prefix
func (c *LRUCache[V]) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.deleteEntryUnsafe(entry)
		}
	}
}

// Clear removes all entries from cache
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry[V])
	c.accessOrder = list.New()
}

// Size returns the current number of cached entries
func (c *LRUCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache statistics
func (c *LRUCache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalRequests := c.hits + c.misses
	hitRatio := 0.0
	if totalRequests > 0 {
		hitRatio = float64(c.hits) / float64(totalRequests)
	}

	return CacheStats{
		Size:        len(c.entries),
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		TTLExpiries: c.ttlExpiries,
		HitRatio:    hitRatio,
		TTL:         c.ttl,
	}
}

// Cleanup removes expired entries
func (c *LRUCache[V]) Cleanup() {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, entry := range c.entries {
		if now.Sub(entry.createdAt) > c.ttl {
			c.deleteEntryUnsafe(entry)
			c.ttlExpiries++
		}
	}
}

// evictLRUUnsafe removes the least recently used entry (must be called with lock held)
func (c *LRUCache[V]) evictLRUUnsafe() {
	lruElement := c.accessOrder.Back()
	if lruElement == nil {
		return
	}

	c.deleteEntryUnsafe(lruElement.Value.(*cacheEntry[V]))
	c.evictions++
}

// deleteEntryUnsafe removes an entry from both map and list (must be called with lock held)
func (c *LRUCache[V]) deleteEntryUnsafe(entry *cacheEntry[V]) {
	delete(c.entries, entry.key)
	if entry.listElement != nil {
		c.accessOrder.Remove(entry.listElement)
	}
}
