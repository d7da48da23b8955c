package table

import (
	"math"

	"github.com/star/orbitgo/internal/orbit"
)

// Position returns the planet position at absolute time tm.
func (t *Table) Position(tm float64) orbit.Vec {
	ix, dt := t.locate(tm)
	return t.bases[ix].At(dt)
}

// Velocity returns the planet velocity (stellar radii per day) at time tm.
func (t *Table) Velocity(tm float64) orbit.Vec {
	ix, dt := t.locate(tm)
	return t.bases[ix].VelocityAt(dt)
}

// ProjectedDistance returns the sky-plane star-planet separation at time tm.
func (t *Table) ProjectedDistance(tm float64) float64 {
	return t.Position(tm).ProjectedDistance()
}

// StarPlanetDistance returns the three-dimensional star-planet separation.
func (t *Table) StarPlanetDistance(tm float64) float64 {
	return t.Position(tm).Norm()
}

// Z returns the line-of-sight coordinate, positive towards the observer.
func (t *Table) Z(tm float64) float64 {
	ix, dt := t.locate(tm)
	return t.bases[ix].At(dt).Z
}

// VZ returns the line-of-sight velocity.
func (t *Table) VZ(tm float64) float64 {
	ix, dt := t.locate(tm)
	return t.bases[ix].VelocityAt(dt).Z
}

// CosPhaseAngle returns the cosine of the star-planet-observer phase angle.
func (t *Table) CosPhaseAngle(tm float64) float64 {
	p := t.Position(tm)
	return -p.Z / p.Norm()
}

// CosAngleTo returns the cosine of the angle between the planet position and v.
func (t *Table) CosAngleTo(v orbit.Vec, tm float64) float64 {
	p := t.Position(tm)
	return (p.X*v.X + p.Y*v.Y + p.Z*v.Z) / (p.Norm() * v.Norm())
}

// ZDiff returns z(tm) relative to the z coordinate at mid-transit (bin 0).
func (t *Table) ZDiff(tm float64) float64 {
	return t.Z(tm) - t.bases[0].Coeff(0, 2)
}

// LightTravelTime returns the light-travel delay in days at time tm for a star
// of radius rstar solar radii. It is zero at mid-transit.
func (t *Table) LightTravelTime(tm, rstar float64) float64 {
	return -t.ZDiff(tm) * rstar * LightDaysPerSolarRadius
}

// Positions evaluates Position at every time, preserving input order.
func (t *Table) Positions(times []float64) []orbit.Vec {
	out := make([]orbit.Vec, len(times))
	for i, tm := range times {
		out[i] = t.Position(tm)
	}
	return out
}

// Velocities evaluates Velocity at every time, preserving input order.
func (t *Table) Velocities(times []float64) []orbit.Vec {
	out := make([]orbit.Vec, len(times))
	for i, tm := range times {
		out[i] = t.Velocity(tm)
	}
	return out
}

// ProjectedDistances evaluates ProjectedDistance at every time.
func (t *Table) ProjectedDistances(times []float64) []float64 {
	return t.scalars(times, t.ProjectedDistance)
}

// StarPlanetDistances evaluates StarPlanetDistance at every time.
func (t *Table) StarPlanetDistances(times []float64) []float64 {
	return t.scalars(times, t.StarPlanetDistance)
}

// Zs evaluates Z at every time.
func (t *Table) Zs(times []float64) []float64 {
	return t.scalars(times, t.Z)
}

// VZs evaluates VZ at every time.
func (t *Table) VZs(times []float64) []float64 {
	return t.scalars(times, t.VZ)
}

// CosPhaseAngles evaluates CosPhaseAngle at every time.
func (t *Table) CosPhaseAngles(times []float64) []float64 {
	return t.scalars(times, t.CosPhaseAngle)
}

// LightTravelTimes evaluates LightTravelTime at every time.
func (t *Table) LightTravelTimes(times []float64, rstar float64) []float64 {
	return t.scalars(times, func(tm float64) float64 { return t.LightTravelTime(tm, rstar) })
}

func (t *Table) scalars(times []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(times))
	for i, tm := range times {
		out[i] = fn(tm)
	}
	return out
}

// PhaseAngle returns the phase angle in radians at time tm.
func (t *Table) PhaseAngle(tm float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, t.CosPhaseAngle(tm))))
}
