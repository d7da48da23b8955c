package orbit

import (
	"fmt"
	"math"

	"github.com/star/orbitgo/internal/kepler"
)

// ExpansionStep is the finite-difference spacing (days) of the 7-point
// stencils. Small enough for ultra-short-period orbits, large enough to keep
// the fourth derivative above the double-precision noise floor. Orbits with
// periods shorter than a few tenths of a day need a smaller step than this.
const ExpansionStep = 2e-2

// Stencil weights for the central differences over samples at −3dt..+3dt.
const (
	velA, velB, velC       = 1.0 / 60.0, 9.0 / 60.0, 45.0 / 60.0
	accA, accB, accC, accD = 1.0 / 90.0, 3.0 / 20.0, 3.0 / 2.0, 49.0 / 18.0
	jerkA, jerkB, jerkC    = 1.0 / 8.0, 1.0, 13.0 / 8.0
	snapA, snapB, snapC    = 1.0 / 6.0, 2.0, 13.0 / 2.0
	snapD                  = 28.0 / 3.0
)

// Expand builds the Taylor basis of the planet position at the given phase
// (days from mid-transit). Elements are assumed valid; only the Kepler
// solver's error is reported.
func Expand(phase float64, el Elements, dim Dim) (Basis, error) {
	if !dim.Valid() {
		return Basis{}, fmt.Errorf("unsupported basis dimension %d", int(dim))
	}

	const dt = ExpansionStep
	ae := el.A * (1.0 - el.E*el.E)
	ci, si := math.Cos(el.I), math.Sin(el.I)

	var x, y, z [7]float64
	for k := 0; k < 7; k++ {
		f, err := kepler.TrueAnomaly(phase+float64(k-3)*dt, 0.0, el.P, el.E, el.W)
		if err != nil {
			return Basis{}, fmt.Errorf("expand at phase %g: %w", phase, err)
		}
		r := ae / (1.0 + el.E*math.Cos(f))
		sw, cw := math.Sincos(el.W + f)
		x[k] = -r * cw
		y[k] = -r * sw * ci
		z[k] = r * sw * si
	}

	b := Basis{Dim: dim}
	n := int(dim)
	for c, s := range [3]*[7]float64{&x, &y, &z} {
		if c >= n {
			break
		}
		pos, vel, acc, jerk, snap := stencil(s, dt)
		b.Coeffs[c] = pos
		b.Coeffs[n+c] = vel
		b.Coeffs[2*n+c] = acc
		b.Coeffs[3*n+c] = jerk
		b.Coeffs[4*n+c] = snap
	}
	return b, nil
}

// stencil applies the central-difference weights to seven equally spaced samples.
func stencil(s *[7]float64, dt float64) (pos, vel, acc, jerk, snap float64) {
	dt2 := dt * dt
	pos = s[3]
	vel = (velA*(s[6]-s[0]) + velB*(s[1]-s[5]) + velC*(s[4]-s[2])) / dt
	acc = (accA*(s[0]+s[6]) - accB*(s[1]+s[5]) + accC*(s[2]+s[4]) - accD*s[3]) / dt2
	jerk = (jerkA*(s[0]-s[6]) + jerkB*(s[5]-s[1]) + jerkC*(s[2]-s[4])) / (dt2 * dt)
	snap = (-snapA*(s[0]+s[6]) + snapB*(s[1]+s[5]) - snapC*(s[2]+s[4]) + snapD*s[3]) / (dt2 * dt2)
	return pos, vel, acc, jerk, snap
}

// Position returns the exact position at the given phase by solving Kepler's
// equation directly, without a polynomial expansion.
func Position(phase float64, el Elements) (Vec, error) {
	f, err := kepler.TrueAnomaly(phase, 0.0, el.P, el.E, el.W)
	if err != nil {
		return Vec{}, err
	}
	r := el.A * (1.0 - el.E*el.E) / (1.0 + el.E*math.Cos(f))
	sw, cw := math.Sincos(el.W + f)
	return Vec{
		X: -r * cw,
		Y: -r * sw * math.Cos(el.I),
		Z: r * sw * math.Sin(el.I),
	}, nil
}
