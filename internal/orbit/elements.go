// Package orbit holds the canonical orbital elements, the local Taylor basis
// of the planet position and the engine that builds it from the Kepler solver.
package orbit

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidElement is returned for elements outside the solver's domain.
var ErrInvalidElement = errors.New("invalid orbital element")

// Elements are the six canonical orbital elements. Units: days, stellar radii
// and radians.
type Elements struct {
	T0 float64 // mid-transit epoch
	P  float64 // period
	A  float64 // semi-major axis
	I  float64 // inclination
	E  float64 // eccentricity, [0, 1)
	W  float64 // argument of periastron
}

// Validate rejects elements the Kepler solver cannot handle.
func (el Elements) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"t0", el.T0}, {"p", el.P}, {"a", el.A}, {"i", el.I}, {"e", el.E}, {"w", el.W},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidElement, v.name)
		}
	}
	if el.P <= 0 {
		return fmt.Errorf("%w: period %g must be positive", ErrInvalidElement, el.P)
	}
	if el.A <= 0 {
		return fmt.Errorf("%w: semi-major axis %g must be positive", ErrInvalidElement, el.A)
	}
	if el.E < 0 || el.E >= 1 {
		return fmt.Errorf("%w: eccentricity %g outside [0, 1)", ErrInvalidElement, el.E)
	}
	return nil
}

// Vec is a position (or derivative of a position) in stellar radii. Z is zero
// for two-dimensional bases.
type Vec struct {
	X, Y, Z float64
}

// ProjectedDistance returns the sky-plane separation sqrt(x²+y²).
func (v Vec) ProjectedDistance() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Norm returns the full three-dimensional length.
func (v Vec) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
