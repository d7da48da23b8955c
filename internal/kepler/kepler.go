// Package kepler solves Kepler's equation for the true anomaly of a planet on
// an eccentric orbit.
//
// Phases are measured in days from mid-transit: the mean anomaly carries an
// offset chosen so that phase 0 maps to true anomaly f = π/2 − w, where the
// planet crosses the line of sight in front of the star.
package kepler

import (
	"errors"
	"fmt"
	"math"
)

const (
	twoPi  = 2.0 * math.Pi
	halfPi = 0.5 * math.Pi

	// Tolerance is the Newton step size (radians) below which the eccentric
	// anomaly is considered converged.
	Tolerance = 1e-12

	// MaxIterations bounds the Newton iteration.
	MaxIterations = 100
)

// ErrNonConvergence is returned when the Newton iteration exhausts its budget.
var ErrNonConvergence = errors.New("kepler: newton iteration did not converge")

// MeanAnomalyOffset returns the mean anomaly at mid-transit for eccentricity e
// and argument of periastron w.
func MeanAnomalyOffset(e, w float64) float64 {
	m := math.Atan2(math.Sqrt(1.0-e*e)*math.Sin(halfPi-w), e+math.Cos(halfPi-w))
	return m - e*math.Sin(m)
}

// MeanAnomaly returns the mean anomaly in [0, 2π) at time t for an orbit with
// mid-transit epoch t0 and period p.
func MeanAnomaly(t, t0, p, e, w float64) float64 {
	return wrap(MeanAnomalyOffset(e, w) + twoPi*(t-t0)/p)
}

// EccentricAnomaly solves M = E − e·sin(E) for E by Newton-Raphson iteration.
// The caller is responsible for e ∈ [0, 1).
func EccentricAnomaly(m, e float64) (float64, error) {
	ea := m
	if e > 0.8 {
		ea = math.Pi
	}
	for k := 0; k < MaxIterations; k++ {
		step := (ea - e*math.Sin(ea) - m) / (1.0 - e*math.Cos(ea))
		ea -= step
		if math.Abs(step) <= Tolerance {
			return ea, nil
		}
	}
	return ea, fmt.Errorf("%w: m=%g e=%g after %d iterations", ErrNonConvergence, m, e, MaxIterations)
}

// TrueFromEccentric converts an eccentric anomaly to a true anomaly.
func TrueFromEccentric(ea, e float64) float64 {
	return 2.0 * math.Atan2(math.Sqrt(1.0+e)*math.Sin(0.5*ea), math.Sqrt(1.0-e)*math.Cos(0.5*ea))
}

// SolveTrueAnomaly returns the true anomaly for mean anomaly m. For a circular
// orbit the result equals m.
func SolveTrueAnomaly(m, e float64) (float64, error) {
	if e == 0 {
		return m, nil
	}
	ea, err := EccentricAnomaly(m, e)
	if err != nil {
		return 0, err
	}
	return TrueFromEccentric(ea, e), nil
}

// TrueAnomaly returns the true anomaly (radians) at time t.
func TrueAnomaly(t, t0, p, e, w float64) (float64, error) {
	return SolveTrueAnomaly(MeanAnomaly(t, t0, p, e, w), e)
}

// wrap maps an angle into [0, 2π).
func wrap(x float64) float64 {
	x = math.Mod(x, twoPi)
	if x < 0 {
		x += twoPi
	}
	return x
}
