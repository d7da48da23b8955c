package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/star/orbitgo/internal/orbit"
	"github.com/star/orbitgo/internal/table"
)

// Rebuild builds a fresh table for el and bins and swaps it in. Readers that
// already hold the previous instance keep using it.
func (c *TableCache) Rebuild(ctx context.Context, el orbit.Elements, bins int) (*table.Table, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	key := Key{Elements: el, Bins: bins}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	t, err := c.prop.BuildTable(ctx, el, bins)
	if err != nil {
		return nil, fmt.Errorf("rebuilding %d-bin table: %w", bins, err)
	}

	c.mu.RLock()
	old, ok := c.entries[key]
	c.mu.RUnlock()

	c.put(key, t)

	if ok {
		c.logger.Info("table replaced",
			"old_table_id", old.Table.ID().String(),
			"new_table_id", t.ID().String(),
		)
	}
	return t, nil
}

// RebuildAll rebuilds every cached table into a new entry set and swaps it
// in atomically. Reads against the old set continue during the rebuild. If
// any build fails or ctx is cancelled, the old set stays in place.
func (c *TableCache) RebuildAll(ctx context.Context) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	c.mu.RLock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	c.logger.Info("cache rebuild starting", "tables", len(keys))
	start := time.Now()

	newEntries := make(map[Key]*CacheEntry, len(keys))
	for _, k := range keys {
		select {
		case <-ctx.Done():
			c.logger.Warn("cache rebuild cancelled by context")
			return ctx.Err()
		default:
		}

		t, err := c.prop.BuildTable(ctx, k.Elements, k.Bins)
		if err != nil {
			c.logger.Warn("cache rebuild failed", "bins", k.Bins, "error", err)
			return fmt.Errorf("rebuilding %d-bin table: %w", k.Bins, err)
		}
		entry := &CacheEntry{Table: t}
		entry.lastUsed.Store(c.clock.Add(1))
		newEntries[k] = entry
	}

	// Atomic swap.
	c.replaceAll(newEntries)

	c.logger.Info("cache rebuild complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"entries_replaced", len(newEntries),
	)
	return nil
}
