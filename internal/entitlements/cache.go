// Package entitlements answers "may this customer play content behind offer X" with a TTL cache in front of the backend.
package entitlements

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/ottx/internal/shared"
)

// QueryKey is the cache key prefix shared by every entitlement query.
const QueryKey = "entitlements"

// CacheConfig sizes a [Cache].
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
	Clock   shared.Clock
}

// CacheStats are simple counters for cache behavior.
type CacheStats struct {
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	Sets          int64         `json:"sets"`
	Invalidations int64         `json:"invalidations"`
	Evictions     int64         `json:"evictions"`
	Size          int           `json:"size"`
	TTL           time.Duration `json:"ttl"`
}

// Cache is a TTL map keyed by query key ("entitlements:<offerId>").
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cachedEntry[V]
	ttl     time.Duration
	maxSize int
	clock   shared.Clock

	hits          int64
	misses        int64
	sets          int64
	invalidations int64
	evictions     int64
}

type cachedEntry[V any] struct {
	value    V
	cachedAt time.Time
}

// NewCache applies defaults of five minutes and 500 entries.
func NewCache[V any](c CacheConfig) *Cache[V] {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}
	if c.Clock == nil {
		c.Clock = shared.SystemClock()
	}

	return &Cache[V]{
		entries: make(map[string]cachedEntry[V]),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
		clock:   c.Clock,
	}
}

// Get returns a fresh entry. Expired entries count as misses and are dropped.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		var zero V
		return zero, false
	}

	if c.clock.Now().Sub(entry.cachedAt) > c.ttl {
		atomic.AddInt64(&c.misses, 1)
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.cachedAt.Equal(entry.cachedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	atomic.AddInt64(&c.hits, 1)
	return entry.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		for k := range c.entries {
			delete(c.entries, k)
			atomic.AddInt64(&c.evictions, 1)
			break
		}
	}

	c.entries[key] = cachedEntry[V]{value: value, cachedAt: c.clock.Now()}
	atomic.AddInt64(&c.sets, 1)
}

// InvalidateQueries drops every entry whose key equals prefix or starts with prefix + ":".
func (c *Cache[V]) InvalidateQueries(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if k == prefix || strings.HasPrefix(k, prefix+":") {
			delete(c.entries, k)
			n++
		}
	}
	atomic.AddInt64(&c.invalidations, int64(n))
	return n
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedEntry[V])
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() CacheStats {
	return CacheStats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Sets:          atomic.LoadInt64(&c.sets),
		Invalidations: atomic.LoadInt64(&c.invalidations),
		Evictions:     atomic.LoadInt64(&c.evictions),
		Size:          c.Len(),
		TTL:           c.ttl,
	}
}
