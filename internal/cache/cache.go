// Package cache implements the Completion Cache (CC): a short-TTL
// memoization layer keyed by completion context, sitting between the rank
// fusion output and the IPC handler so closely spaced keystrokes for the
// same prefix don't re-run the full suggestion pipeline.
//
// Grounded on internal/suggestions/suggest/cache.go's Cache/CacheEntry
// shape (ComputedAt/TTL/IsExpired, Get/Set/Invalidate/Cleanup), generalized
// with a usage-feedback resort behavior added on top.
package cache

import (
	"sort"
	"sync"
	"time"
)

// DefaultTTL is the default cache lifetime.
const DefaultTTL = 5 * time.Minute

// Item is a single cached suggestion entry; Score is mutated in place by
// IncrementUsage.
type Item struct {
	Text    string
	Tooltip string
	Score   float64
}

type entry struct {
	items      []Item
	computedAt time.Time
	lastAccess time.Time
	hitCount   uint64
}

func (e *entry) isExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.computedAt) > ttl
}

// Stats summarizes cache occupancy and hit activity.
type Stats struct {
	Entries  int
	TotalHits uint64
}

// Cache is a concurrent map of cache_key -> entry with TTL expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
}

// New creates a Cache with the given TTL. A zero TTL uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// TryGet returns the cached items for key if present and not expired,
// bumping its hit count. An expired entry is deleted and (nil, false) is
// returned.
func (c *Cache) TryGet(key string) ([]Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if e.isExpired(c.ttl, now) {
		delete(c.entries, key)
		return nil, false
	}
	e.hitCount++
	e.lastAccess = now
	out := make([]Item, len(e.items))
	copy(out, e.items)
	return out, true
}

// Set overwrites the entry at key with items, stamping a fresh ComputedAt.
func (c *Cache) Set(key string, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[key] = &entry{
		items:      items,
		computedAt: now,
		lastAccess: now,
	}
}

// IncrementUsage bumps the score of the item matching text within the
// cached list at key by 0.1 (capped at 1.0) and resorts the list in place,
// per the positive-signal feedback rule. A missing key or text
// is a no-op.
func (c *Cache) IncrementUsage(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	for i := range e.items {
		if e.items[i].Text == text {
			e.items[i].Score += 0.1
			if e.items[i].Score > 1.0 {
				e.items[i].Score = 1.0
			}
			break
		}
	}
	sort.SliceStable(e.items, func(i, j int) bool { return e.items[i].Score > e.items[j].Score })
}

// RemoveExpired deletes every entry older than age (measured from its
// ComputedAt), returning the count removed.
func (c *Cache) RemoveExpired(age time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.computedAt) > age {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats reports current occupancy and cumulative hit count.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		s.TotalHits += e.hitCount
	}
	return s
}

// Invalidate removes a single key, if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll clears the entire cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the cache's configured lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
