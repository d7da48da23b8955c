// Package cache provides a concurrent in-memory cache of orbit tables.
//
// Tables are keyed by their orbital elements and bin count. A miss builds the
// table on the propagator's worker pool; concurrent misses for the same key
// share a single build. Rebuilds construct a fresh table and swap it in
// without interrupting readers, which keep the instance they already hold.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/star/orbitgo/internal/metrics"
	"github.com/star/orbitgo/internal/orbit"
	"github.com/star/orbitgo/internal/propagation"
	"github.com/star/orbitgo/internal/table"
)

// Config holds cache configuration.
type Config struct {
	Bins       int // Default table resolution
	MaxEntries int // Least recently used tables are evicted beyond this
}

// Key identifies a cached table.
type Key struct {
	Elements orbit.Elements
	Bins     int
}

// CacheEntry wraps a table with usage metadata.
type CacheEntry struct {
	Table    *table.Table
	lastUsed atomic.Int64 // cache clock tick of the last access
}

// TableCache is an in-memory cache of orbit tables.
// Safe for concurrent use by multiple goroutines.
type TableCache struct {
	mu      sync.RWMutex
	entries map[Key]*CacheEntry
	buildMu sync.Mutex // serializes builds

	config Config
	prop   *propagation.Propagator
	logger *slog.Logger

	// Counters (lock-free).
	clock     atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewTableCache creates a new table cache.
func NewTableCache(config Config, prop *propagation.Propagator, logger *slog.Logger) *TableCache {
	if config.MaxEntries < 1 {
		config.MaxEntries = 1
	}
	logger.Info("cache initialized",
		"bins", config.Bins,
		"max_entries", config.MaxEntries,
	)

	return &TableCache{
		entries: make(map[Key]*CacheEntry),
		config:  config,
		prop:    prop,
		logger:  logger,
	}
}

// Get returns the table for el at the configured resolution, building it on a miss.
func (c *TableCache) Get(ctx context.Context, el orbit.Elements) (*table.Table, error) {
	return c.GetBins(ctx, el, c.config.Bins)
}

// GetBins returns the table for el with the given number of bins, building it
// on a miss (double-checked locking).
func (c *TableCache) GetBins(ctx context.Context, el orbit.Elements, bins int) (*table.Table, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	key := Key{Elements: el, Bins: bins}

	if t := c.lookup(key); t != nil {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return t, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	if t := c.lookup(key); t != nil {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return t, nil
	}

	c.misses.Add(1)
	metrics.IncCacheMisses()

	t, err := c.prop.BuildTable(ctx, el, bins)
	if err != nil {
		return nil, fmt.Errorf("cache miss for %d-bin table: %w", bins, err)
	}
	c.put(key, t)
	c.logger.Debug("table cached",
		"table_id", t.ID().String(),
		"bins", bins,
	)
	return t, nil
}

// Peek returns the cached table for el and bins, or nil if not cached.
func (c *TableCache) Peek(el orbit.Elements, bins int) *table.Table {
	if t := c.lookup(Key{Elements: el, Bins: bins}); t != nil {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return t
	}
	c.misses.Add(1)
	metrics.IncCacheMisses()
	return nil
}

func (c *TableCache) lookup(key Key) *table.Table {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil
	}
	entry.lastUsed.Store(c.clock.Add(1))
	return entry.Table
}

// put stores a table and evicts the least recently used entries beyond
// MaxEntries. Caller must not hold mu.
func (c *TableCache) put(key Key, t *table.Table) {
	entry := &CacheEntry{Table: t}
	entry.lastUsed.Store(c.clock.Add(1))

	c.mu.Lock()
	c.entries[key] = entry
	removed := c.evictLocked()
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		c.logger.Debug("cache eviction", "entries_removed", removed)
	}
	c.updateMetrics()
}

// evictLocked drops least recently used entries until the cache fits. Caller
// must hold mu for writing.
func (c *TableCache) evictLocked() int {
	var removed int
	for len(c.entries) > c.config.MaxEntries {
		var (
			oldestKey Key
			oldest    int64
			found     bool
		)
		for k, e := range c.entries {
			if used := e.lastUsed.Load(); !found || used < oldest {
				oldestKey, oldest, found = k, used, true
			}
		}
		delete(c.entries, oldestKey)
		removed++
	}
	return removed
}

// Invalidate removes the table for el and bins. It reports whether one was cached.
func (c *TableCache) Invalidate(el orbit.Elements, bins int) bool {
	c.mu.Lock()
	_, ok := c.entries[Key{Elements: el, Bins: bins}]
	delete(c.entries, Key{Elements: el, Bins: bins})
	c.mu.Unlock()

	if ok {
		c.updateMetrics()
	}
	return ok
}

// Purge empties the cache.
func (c *TableCache) Purge() {
	c.replaceAll(make(map[Key]*CacheEntry))
}

// replaceAll atomically replaces all cache entries.
func (c *TableCache) replaceAll(newEntries map[Key]*CacheEntry) {
	c.mu.Lock()
	c.entries = newEntries
	c.mu.Unlock()
	c.updateMetrics()
}

// Stats returns current cache statistics.
func (c *TableCache) Stats() CacheStats {
	c.mu.RLock()
	count := len(c.entries)

	var oldest, newest time.Time
	for _, e := range c.entries {
		built := e.Table.BuiltAt()
		if oldest.IsZero() || built.Before(oldest) {
			oldest = built
		}
		if newest.IsZero() || built.After(newest) {
			newest = built
		}
	}
	c.mu.RUnlock()

	return CacheStats{
		Entries:     count,
		SizeBytes:   c.estimateSizeBytes(),
		OldestBuilt: oldest,
		NewestBuilt: newest,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Entries     int
	SizeBytes   int64
	OldestBuilt time.Time
	NewestBuilt time.Time
	Hits        int64
	Misses      int64
	Evictions   int64
}

// estimateSizeBytes returns a rough estimate of the cache memory footprint.
func (c *TableCache) estimateSizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, entry := range c.entries {
		// Per bin: one XYZ basis plus its phase.
		bins := int64(entry.Table.Bins())
		total += bins * (int64(unsafe.Sizeof(orbit.Basis{})) + 8)
		// Table header and entry overhead.
		total += int64(unsafe.Sizeof(table.Table{})) + int64(unsafe.Sizeof(CacheEntry{}))
	}

	// Map overhead (rough: key plus bucket pointer).
	total += int64(len(c.entries)) * int64(unsafe.Sizeof(Key{})+8)

	return total
}

// updateMetrics publishes current cache size to Prometheus.
func (c *TableCache) updateMetrics() {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()

	metrics.SetCacheEntries(count)
	metrics.SetCacheSizeBytes(c.estimateSizeBytes())
}
