package cache

import (
	"context"
	"time"

	"github.com/star/orbitgo/internal/orbit"
)

// Warmup builds tables for every element set at the configured resolution.
// Failures are logged and skipped; the number of tables now cached for the
// given sets is returned. It stops early when ctx is cancelled.
func (c *TableCache) Warmup(ctx context.Context, sets []orbit.Elements) int {
	c.logger.Info("cache warmup starting",
		"tables", len(sets),
		"bins", c.config.Bins,
	)

	start := time.Now()
	ready := 0

	for i, el := range sets {
		select {
		case <-ctx.Done():
			c.logger.Warn("cache warmup cancelled", "ready", ready, "remaining", len(sets)-i)
			return ready
		default:
		}

		if _, err := c.Get(ctx, el); err != nil {
			c.logger.Warn("warmup build failed", "index", i, "error", err)
			continue
		}
		ready++
	}

	c.logger.Info("cache warmup complete",
		"ready", ready,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ready
}
