package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// DefaultTTL is how long a cached history read stays live.
const DefaultTTL = 20 * time.Second

// Cache is the process-wide read-side cache for history queries. Entries are
// keyed by fetch mode plus query scope and expire TTL after insertion. Writes
// go through InvalidateAll only; there is no per-key eviction.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	expiresAt time.Time
	data      []models.Inspection
}

// NewCache builds a cache with the given TTL. now is injectable for tests;
// nil means time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Key builds the cache key for a query. scope is "all" or an inspector code.
func Key(mode, scope, start, end string) string {
	if scope == "" {
		scope = "all"
	}
	if start == "" {
		start = "none"
	}
	if end == "" {
		end = "none"
	}
	return fmt.Sprintf("%s|%s|%s|%s", mode, scope, start, end)
}

// Get returns the live entry for key, if any.
func (c *Cache) Get(key string) ([]models.Inspection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !entry.expiresAt.After(c.now()) {
		return nil, false
	}
	return entry.data, true
}

// Put stores data under key with a fresh expiry.
func (c *Cache) Put(key string, data []models.Inspection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		expiresAt: c.now().Add(c.ttl),
		data:      data,
	}
}

// InvalidateAll drops every entry. Called after each successful submission so
// list and report views observe the new record.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
