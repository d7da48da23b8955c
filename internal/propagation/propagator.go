package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/star/orbitgo/internal/derivative"
	"github.com/star/orbitgo/internal/metrics"
	"github.com/star/orbitgo/internal/orbit"
	"github.com/star/orbitgo/internal/table"
)

// Propagator builds orbit tables and evaluates them over large time batches
// on a worker pool.
type Propagator struct {
	pool   *WorkerPool
	config PropConfig
	logger *slog.Logger
}

// NewPropagator creates a new propagation orchestrator.
func NewPropagator(config PropConfig, logger *slog.Logger) *Propagator {
	if config.ChunkSize < 1 {
		config.ChunkSize = DefaultChunkSize
	}
	pool := NewWorkerPool(config.Workers, logger)
	return &Propagator{
		pool:   pool,
		config: config,
		logger: logger,
	}
}

// Pool returns the underlying worker pool.
func (p *Propagator) Pool() *WorkerPool {
	return p.pool
}

// BuildTable builds an orbit table with one pool job per bin.
func (p *Propagator) BuildTable(ctx context.Context, el orbit.Elements, bins int) (*table.Table, error) {
	start := time.Now()
	t, err := table.BuildParallel(ctx, p.pool, el, bins)
	duration := time.Since(start)
	if err != nil {
		metrics.IncTableBuildFailures()
		return nil, fmt.Errorf("building table: %w", err)
	}

	metrics.RecordTableBuild(duration)
	p.logger.Debug("table built",
		"table_id", t.ID().String(),
		"bins", bins,
		"period", el.P,
		"duration_ms", duration.Milliseconds(),
	)
	return t, nil
}

// chunked runs fn over [0, n) in contiguous chunks and records the batch.
func (p *Propagator) chunked(ctx context.Context, query string, n int, fn func(i int)) error {
	chunks := (n + p.config.ChunkSize - 1) / p.config.ChunkSize

	start := time.Now()
	err := p.pool.Run(ctx, chunks, func(c int) error {
		lo := c * p.config.ChunkSize
		hi := min(lo+p.config.ChunkSize, n)
		for i := lo; i < hi; i++ {
			fn(i)
		}
		return nil
	})
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("%s: %w", query, err)
	}

	metrics.RecordPropagation(query, duration, n)
	p.logger.Debug("batch evaluated",
		"query", query,
		"samples", n,
		"chunks", chunks,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Positions evaluates the table at every time, preserving input order.
func (p *Propagator) Positions(ctx context.Context, t *table.Table, times []float64) ([]orbit.Vec, error) {
	out := make([]orbit.Vec, len(times))
	err := p.chunked(ctx, "positions", len(times), func(i int) {
		out[i] = t.Position(times[i])
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProjectedDistances evaluates the sky-plane separation at every time.
func (p *Propagator) ProjectedDistances(ctx context.Context, t *table.Table, times []float64) ([]float64, error) {
	out := make([]float64, len(times))
	err := p.chunked(ctx, "projected_distances", len(times), func(i int) {
		out[i] = t.ProjectedDistance(times[i])
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LightTravelTimes evaluates the light-travel-time delay at every time for a
// star of radius rstar solar radii.
func (p *Propagator) LightTravelTimes(ctx context.Context, t *table.Table, times []float64, rstar float64) ([]float64, error) {
	out := make([]float64, len(times))
	err := p.chunked(ctx, "light_travel_times", len(times), func(i int) {
		out[i] = t.LightTravelTime(times[i], rstar)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DistanceWithDerivatives computes the mid-transit basis and derivative set
// for el and fills the (7, N) projected distance and gradient buffer in
// parallel. No times yield an empty 0×0 matrix after the elements and step
// are validated.
func (p *Propagator) DistanceWithDerivatives(ctx context.Context, el orbit.Elements, times []float64, step float64) (*mat.Dense, error) {
	c0, set, err := derivative.Compute(0, el, step, orbit.XY)
	if err != nil {
		return nil, err
	}
	metrics.IncDerivativeSets()

	if len(times) == 0 {
		return &mat.Dense{}, nil
	}
	res := mat.NewDense(derivative.NumParams+1, len(times), nil)
	err = p.chunked(ctx, "distance_derivatives", len(times), func(j int) {
		set.FillColumn(res, j, times[j], el.T0, el.P, c0)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Track samples the table from start at a fixed interval, n samples in total.
func (p *Propagator) Track(ctx context.Context, t *table.Table, start, interval float64, n int) ([]Sample, error) {
	if n < 0 {
		return nil, fmt.Errorf("track length %d must not be negative", n)
	}
	samples := make([]Sample, n)
	err := p.chunked(ctx, "track", n, func(i int) {
		tm := start + float64(i)*interval
		pos := t.Position(tm)
		samples[i] = Sample{
			Time:              tm,
			Position:          pos,
			Velocity:          t.Velocity(tm),
			ProjectedDistance: pos.ProjectedDistance(),
		}
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}
