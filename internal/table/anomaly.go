package table

import (
	"math"

	"github.com/star/orbitgo/internal/kepler"
	"github.com/star/orbitgo/internal/orbit"
)

// periastron returns the unit vector from the star towards periastron in the
// sky frame used by the table.
func (t *Table) periastron() orbit.Vec {
	el := t.elements
	sw, cw := math.Sincos(el.W)
	si, ci := math.Sincos(el.I)
	return orbit.Vec{X: -cw, Y: -sw * ci, Z: sw * si}
}

// TrueAnomaly returns the true anomaly (radians, [0, 2π)) at time tm recovered
// from the tabulated position and velocity. Circular orbits have no
// periastron, so the mean anomaly measured from the argument of periastron is
// returned instead.
func (t *Table) TrueAnomaly(tm float64) float64 {
	el := t.elements
	if el.E == 0 {
		return kepler.MeanAnomaly(tm, el.T0, el.P, 0, el.W)
	}
	ix, dt := t.locate(tm)
	p := t.bases[ix].At(dt)
	v := t.bases[ix].VelocityAt(dt)
	e := t.periastron()

	edp := (p.X*e.X + p.Y*e.Y + p.Z*e.Z) / p.Norm()
	switch {
	case edp <= -1:
		return math.Pi
	case edp >= 1:
		return 0
	case p.X*v.X+p.Y*v.Y+p.Z*v.Z > 0:
		return math.Acos(edp)
	default:
		return 2*math.Pi - math.Acos(edp)
	}
}

// TrueAnomalies evaluates TrueAnomaly at every time.
func (t *Table) TrueAnomalies(times []float64) []float64 {
	return t.scalars(times, t.TrueAnomaly)
}

// RadialVelocity returns the stellar radial velocity at time tm for a
// semi-amplitude k, in the units of k. The line-of-sight velocity of the
// planet is scaled by the orbit's velocity amplitude 2π/p·a·sin(i)/sqrt(1−e²),
// which is zero for face-on orbits.
func (t *Table) RadialVelocity(tm, k float64) float64 {
	return t.VZ(tm) / t.velocityAmplitude() * k
}

// RadialVelocities evaluates RadialVelocity at every time.
func (t *Table) RadialVelocities(times []float64, k float64) []float64 {
	n := t.velocityAmplitude()
	return t.scalars(times, func(tm float64) float64 { return t.VZ(tm) / n * k })
}

func (t *Table) velocityAmplitude() float64 {
	el := t.elements
	return 2 * math.Pi / el.P * el.A * math.Sin(el.I) / math.Sqrt(1-el.E*el.E)
}
