// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
)

// Entry represents a cached value with its expiry.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time

	key  string
	elem *list.Element
}

// Config controls cache construction.
type Config struct {
	// Name labels the cache in Prometheus metrics.
	Name string

	// DefaultTTL is used by Set. Default: 5m
	DefaultTTL time.Duration

	// MaxEntries caps the number of live entries. Zero means unbounded.
	MaxEntries int

	// SingleFlight collapses concurrent GetOrLoad misses on the same key.
	SingleFlight bool

	// Now overrides the clock. Tests use it to step past expiry.
	Now func() time.Time
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   *list.List // insertion order, front is oldest

	name         string
	ttl          time.Duration
	maxEntries   int
	singleFlight bool
	now          func() time.Time
	group        singleflight.Group

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	lastCleanup atomic.Int64 // unix nanos
}

// New creates a cache configured by cfg.
//
// Parameters:
//   - cfg: Name labels the metrics, DefaultTTL applies to Set, MaxEntries
//     bounds the entry count and SingleFlight collapses concurrent loads
//
// Returns:
//   - Pointer to an empty Cache. Zero-valued fields fall back to name
//     "default", a 5 minute TTL, no entry bound and the wall clock
//
// Thread Safety:
//   - Safe for concurrent access from multiple goroutines
//   - No background goroutine is started; call Sweep periodically (see
//     supervisor/services.CacheSweeperService) to reclaim entries that are
//     never read again
//
// Example:
//
//	c := cache.New(cache.Config{Name: "discovery", DefaultTTL: 2 * time.Minute, SingleFlight: true})
//	c.Set("key", value)
//	if data, ok := c.Get("key"); ok {
//	    // Use cached data
//	}
func New(cfg Config) *Cache {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxEntries < 0 {
		cfg.MaxEntries = 0
	}

	c := &Cache{
		entries:      make(map[string]*Entry),
		order:        list.New(),
		name:         cfg.Name,
		ttl:          cfg.DefaultTTL,
		maxEntries:   cfg.MaxEntries,
		singleFlight: cfg.SingleFlight,
		now:          cfg.Now,
	}
	c.lastCleanup.Store(cfg.Now().UnixNano())
	return c
}

// Name returns the metrics label of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Get retrieves the value stored under key.
//
// Parameters:
//   - key: Cache key string (use GenerateKey() for consistent key generation)
//
// Returns:
//   - interface{}: Cached data if found and not expired
//   - bool: true if the entry exists and is valid, false otherwise
//
// Behavior:
//   - Returns (nil, false) if the key doesn't exist
//   - Returns (nil, false) if the entry has expired; the entry is removed
//     and counted as an expiry eviction
//   - Every call counts as exactly one hit or one miss
//
// Thread Safety: Uses RLock for the lookup and upgrades to Lock only to
// remove an expired entry.
//
// Example:
//
//	if data, ok := c.Get(cache.GenerateKey(cache.KeyItemDetail, id)); ok {
//	    return data.(models.ItemDetail), nil
//	}
//	// Cache miss, read the signal store
func (c *Cache) Get(key string) (interface{}, bool) {
	now := c.now()

	c.mu.RLock()
	entry, exists := c.entries[key]
	var data interface{}
	var expiresAt time.Time
	if exists {
		data, expiresAt = entry.Data, entry.ExpiresAt
	}
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if !now.Before(expiresAt) {
		c.mu.Lock()
		// Another writer may have refreshed the key between the two locks.
		if current, ok := c.entries[key]; ok && current == entry {
			c.removeLocked(entry)
			c.recordEviction("expired", 1)
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return data, true
}

// Set stores value under key with the default TTL.
//
// Parameters:
//   - key: Cache key string (use GenerateKey() for consistent keys)
//   - value: Data to cache. Callers must not mutate it afterwards
//
// Behavior:
//   - Overwrites any existing entry with the same key
//   - Sets expiration to now + Config.DefaultTTL
//
// Thread Safety: Uses write lock for safe concurrent access.
//
// Example:
//
//	c.Set(cache.GenerateKey(cache.KeySimilar, params), items)
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
//
// Parameters:
//   - key: Cache key string
//   - value: Data to cache
//   - ttl: Lifetime of this entry. A non-positive ttl is a no-op, so a zero
//     TTL in configuration disables caching for that read path
//
// Behavior:
//   - Replaces any previous entry and restarts its expiry
//   - With MaxEntries set and the cache full, expired entries are reclaimed
//     first and then the oldest inserted entries are evicted
//
// Thread Safety: Uses write lock for safe concurrent access.
//
// Example:
//
//	c.SetWithTTL("presence:batch", counts, 15*time.Second)
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.makeRoomLocked(now)
	}

	entry := &Entry{Data: value, ExpiresAt: now.Add(ttl), key: key}
	entry.elem = c.order.PushBack(entry)
	c.entries[key] = entry

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Delete removes the entry stored under key.
//
// Parameters:
//   - key: Cache key to remove
//
// Behavior:
//   - No-op if the key doesn't exist
//   - Counts a "deleted" eviction only when an entry was removed
//
// Thread Safety: Uses write lock for safe concurrent access.
//
// Example:
//
//	// Invalidate the item detail after a vote changes its aggregates
//	c.Delete(cache.GenerateKey(cache.KeyItemDetail, itemID))
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.removeLocked(entry)
		c.recordEviction("deleted", 1)
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]*Entry)
	c.order.Init()
	c.mu.Unlock()

	c.recordEviction("deleted", removed)
	metrics.CacheSize.WithLabelValues(c.name).Set(0)
}

// Len returns the number of stored entries, including expired entries that
// have not been reclaimed yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := c.purgeExpiredLocked(now)
	size := len(c.entries)
	c.mu.Unlock()

	c.lastCleanup.Store(now.UnixNano())
	c.recordEviction("expired", removed)
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
	return removed
}

// maxFlightJoins bounds how often a caller rejoins a single-flight load
// whose leader went away before it falls back to loading on its own.
const maxFlightJoins = 3

// GetOrLoad returns the cached value for key or computes it with load.
//
// Parameters:
//   - ctx: Bounds the caller's wait and, for the caller that runs it, the load
//   - key: Cache key string
//   - ttl: Lifetime of the stored value; non-positive disables storing
//   - load: Computes the value on a miss
//
// Returns:
//   - interface{}: The cached or freshly loaded value
//   - error: The loader's error, or ctx.Err() when the caller's ctx ended
//
// Behavior:
//   - The computed value is stored only when load succeeds and the ctx it
//     ran under has not ended in the meantime
//   - With single-flight enabled, concurrent misses on the same key share
//     one load that runs under the ctx of the caller that started it
//   - A joined caller still honors its own ctx and stops waiting when it
//     is done
//   - When the starting caller's ctx ends mid-load, joined callers whose
//     ctx is still live do not inherit its cancellation; they rejoin or
//     start a new load, and after maxFlightJoins attempts load under their
//     own ctx
//
// Thread Safety: Safe for concurrent use. The loader runs without any cache
// lock held.
//
// Example:
//
//	v, err := c.GetOrLoad(ctx, key, time.Minute, func(ctx context.Context) (interface{}, error) {
//	    return store.GetItem(ctx, id)
//	})
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	if !c.singleFlight {
		return c.loadAndStore(ctx, key, ttl, load)
	}

	for attempt := 0; attempt < maxFlightJoins; attempt++ {
		v, abandoned, err := c.joinFlight(ctx, key, ttl, load)
		if !abandoned || ctx.Err() != nil {
			return v, err
		}
	}
	return c.loadAndStore(ctx, key, ttl, load)
}

// flight is the shared result of one single-flight load.
type flight struct {
	value interface{}

	// abandoned is set when the load failed because the leading caller's
	// ctx ended, which says nothing about the key itself.
	abandoned bool
}

func (c *Cache) joinFlight(ctx context.Context, key string, ttl time.Duration, load Loader) (interface{}, bool, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A concurrent flight for this key may have just finished.
		if v, ok := c.peek(key); ok {
			return flight{value: v}, nil
		}
		v, err := c.loadAndStore(ctx, key, ttl, load)
		if err != nil && ctx.Err() != nil {
			return flight{abandoned: true}, err
		}
		return flight{value: v}, err
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CacheLoadsShared.WithLabelValues(c.name).Inc()
		}
		f, _ := res.Val.(flight)
		return f.value, f.abandoned, res.Err
	}
}

func (c *Cache) loadAndStore(ctx context.Context, key string, ttl time.Duration, load Loader) (interface{}, error) {
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	c.SetWithTTL(key, v, ttl)
	return v, nil
}

// peek reads without touching hit and miss counters.
func (c *Cache) peek(key string) (interface{}, bool) {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !now.Before(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Data, true
}

// GetStats returns a snapshot of the cache counters.
//
// Returns:
//   - Stats with Hits, Misses and Evictions since creation, the current
//     entry count (expired entries not yet reclaimed included) and the
//     time of the last Sweep
//
// Thread Safety: Counters are atomics; TotalKeys takes a read lock.
func (c *Cache) GetStats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		TotalKeys:   int64(c.Len()),
		LastCleanup: time.Unix(0, c.lastCleanup.Load()),
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// makeRoomLocked frees at least one slot: expired entries go first, then
// the oldest inserted entries.
func (c *Cache) makeRoomLocked(now time.Time) {
	c.recordEviction("expired", c.purgeExpiredLocked(now))

	evicted := 0
	for len(c.entries) >= c.maxEntries {
		front := c.order.Front()
		if front == nil {
			break
		}
		c.removeLocked(front.Value.(*Entry))
		evicted++
	}
	c.recordEviction("capacity", evicted)
}

func (c *Cache) purgeExpiredLocked(now time.Time) int {
	removed := 0
	for _, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			c.removeLocked(entry)
			removed++
		}
	}
	return removed
}

func (c *Cache) removeLocked(entry *Entry) {
	delete(c.entries, entry.key)
	if entry.elem != nil {
		c.order.Remove(entry.elem)
		entry.elem = nil
	}
}

func (c *Cache) recordHit() {
	c.hits.Add(1)
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordMiss() {
	c.misses.Add(1)
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordEviction(reason string, n int) {
	if n <= 0 {
		return
	}
	c.evictions.Add(int64(n))
	metrics.CacheEvictions.WithLabelValues(c.name, reason).Add(float64(n))
}
