// Package table precomputes Taylor bases over a full orbital period so that
// the planet position at any time is an O(1) bin lookup plus a polynomial
// evaluation instead of a Kepler solve.
//
// A Table is immutable after construction and safe for concurrent readers.
// Rebuilding for new elements always yields a new Table.
package table

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/star/orbitgo/internal/orbit"
)

// LightDaysPerSolarRadius converts a stellar radius in solar radii to light-days.
const LightDaysPerSolarRadius = 2.685885891543453e-5

// MinBins is the smallest usable table: two evaluated bins plus the closing copy.
const MinBins = 3

// ErrInvalidBins is returned when a table is requested with fewer than MinBins bins.
var ErrInvalidBins = errors.New("orbit table needs at least 3 bins")

// Table is a whole-orbit lookup table of XYZ Taylor bases.
type Table struct {
	id       uuid.UUID
	elements orbit.Elements
	dt       float64
	phases   []float64
	bases    []orbit.Basis
	builtAt  time.Time
}

// ID identifies this table instance.
func (t *Table) ID() uuid.UUID { return t.id }

// Elements returns the orbital elements the table was built for.
func (t *Table) Elements() orbit.Elements { return t.elements }

// BinWidth returns the phase spacing between bins in days.
func (t *Table) BinWidth() float64 { return t.dt }

// Bins returns the number of bins, including the closing bin.
func (t *Table) Bins() int { return len(t.bases) }

// BuiltAt returns the construction time.
func (t *Table) BuiltAt() time.Time { return t.builtAt }

// Phase returns the phase (days from mid-transit) of bin ix.
func (t *Table) Phase(ix int) float64 { return t.phases[ix] }

// Basis returns the basis of bin ix.
func (t *Table) Basis(ix int) orbit.Basis { return t.bases[ix] }

// prepare validates the inputs and lays out the bin phases.
func prepare(el orbit.Elements, bins int) (*Table, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	if bins < MinBins {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBins, bins)
	}

	t := &Table{
		id:       uuid.New(),
		elements: el,
		dt:       el.P / float64(bins-1),
		phases:   make([]float64, bins),
		bases:    make([]orbit.Basis, bins),
	}
	for i := range t.phases {
		t.phases[i] = float64(i) * t.dt
	}
	t.phases[bins-1] = el.P
	return t, nil
}

// fill expands bin ix.
func (t *Table) fill(ix int) error {
	b, err := orbit.Expand(t.phases[ix], t.elements, orbit.XYZ)
	if err != nil {
		return fmt.Errorf("bin %d: %w", ix, err)
	}
	t.bases[ix] = b
	return nil
}

// close copies bin 0 into the last bin so the table is exactly periodic.
func (t *Table) close() {
	t.bases[len(t.bases)-1] = t.bases[0]
	t.builtAt = time.Now()
}

// Build constructs a table sequentially on the calling goroutine.
func Build(el orbit.Elements, bins int) (*Table, error) {
	t, err := prepare(el, bins)
	if err != nil {
		return nil, err
	}
	for ix := 0; ix < bins-1; ix++ {
		if err := t.fill(ix); err != nil {
			return nil, err
		}
	}
	t.close()
	return t, nil
}

// locate maps an absolute time to its bin and the offset from the bin phase.
func (t *Table) locate(tm float64) (int, float64) {
	p := t.elements.P
	epoch := math.Floor((tm - t.elements.T0) / p)
	tc := tm - t.elements.T0 - epoch*p
	ix := int(math.Floor(tc/t.dt + 0.5))
	if ix < 0 {
		ix = 0
	} else if ix >= len(t.bases) {
		ix = len(t.bases) - 1
	}
	return ix, tc - t.phases[ix]
}
