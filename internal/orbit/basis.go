package orbit

import (
	"fmt"
	"math"
)

// Dim selects the dimensionality of a Taylor basis.
type Dim int

const (
	// XY bases carry the sky-plane components {x0,y0,vx,vy,ax,ay,jx,jy,sx,sy}.
	XY Dim = 2
	// XYZ bases add the line-of-sight component {x0,y0,z0,vx,vy,vz,...,sz}.
	XYZ Dim = 3
)

// Order is the number of coefficients per component: position, velocity,
// acceleration, jerk and snap.
const Order = 5

// MaxCoeffs is the length of an XYZ basis.
const MaxCoeffs = Order * 3

// Len returns the number of coefficients in a basis of this dimensionality.
func (d Dim) Len() int {
	return Order * int(d)
}

func (d Dim) String() string {
	switch d {
	case XY:
		return "xy"
	case XYZ:
		return "xyz"
	default:
		return fmt.Sprintf("Dim(%d)", int(d))
	}
}

// Valid reports whether d is XY or XYZ.
func (d Dim) Valid() bool {
	return d == XY || d == XYZ
}

// Basis is a 4th-order polynomial expansion of the planet position about a
// reference epoch. Coefficient k of component c (0=x, 1=y, 2=z) lives at
// index k*Dim+c, which reproduces both documented layouts. Bases are values;
// nothing mutates one after it is built.
type Basis struct {
	Dim    Dim
	Coeffs [MaxCoeffs]float64
}

// NewBasis builds a basis from a coefficient slice in the documented layout.
func NewBasis(dim Dim, coeffs []float64) (Basis, error) {
	if !dim.Valid() {
		return Basis{}, fmt.Errorf("unsupported basis dimension %d", int(dim))
	}
	if len(coeffs) != dim.Len() {
		return Basis{}, fmt.Errorf("basis %s needs %d coefficients, got %d", dim, dim.Len(), len(coeffs))
	}
	b := Basis{Dim: dim}
	copy(b.Coeffs[:], coeffs)
	return b, nil
}

// Values returns a copy of the coefficients in the documented layout.
func (b Basis) Values() []float64 {
	out := make([]float64, b.Dim.Len())
	copy(out, b.Coeffs[:b.Dim.Len()])
	return out
}

// Coeff returns coefficient of the given order (0..4) for component c.
func (b Basis) Coeff(order, c int) float64 {
	return b.Coeffs[order*int(b.Dim)+c]
}

// Position returns the zeroth-order coefficients.
func (b Basis) Position() Vec {
	return b.vec(0)
}

// Velocity returns the first-order coefficients.
func (b Basis) Velocity() Vec {
	return b.vec(1)
}

func (b Basis) vec(order int) Vec {
	n := int(b.Dim)
	v := Vec{X: b.Coeffs[order*n], Y: b.Coeffs[order*n+1]}
	if b.Dim == XYZ {
		v.Z = b.Coeffs[order*n+2]
	}
	return v
}

// Sub returns (b − o)/scale component-wise. Both bases must share a dimension.
func (b Basis) Sub(o Basis, scale float64) Basis {
	r := Basis{Dim: b.Dim}
	for i := 0; i < b.Dim.Len(); i++ {
		r.Coeffs[i] = (b.Coeffs[i] - o.Coeffs[i]) / scale
	}
	return r
}

// At evaluates the polynomial at offset dt from the basis epoch.
func (b Basis) At(dt float64) Vec {
	dt2 := dt * dt
	dt3 := dt2 * dt
	dt4 := dt3 * dt
	n := int(b.Dim)
	c := b.Coeffs
	eval := func(j int) float64 {
		return c[j] + c[n+j]*dt + 0.5*c[2*n+j]*dt2 + c[3*n+j]*dt3/6.0 + c[4*n+j]*dt4/24.0
	}
	v := Vec{X: eval(0), Y: eval(1)}
	if b.Dim == XYZ {
		v.Z = eval(2)
	}
	return v
}

// VelocityAt evaluates the time derivative of the polynomial at offset dt.
func (b Basis) VelocityAt(dt float64) Vec {
	dt2 := dt * dt
	dt3 := dt2 * dt
	n := int(b.Dim)
	c := b.Coeffs
	eval := func(j int) float64 {
		return c[n+j] + c[2*n+j]*dt + 0.5*c[3*n+j]*dt2 + c[4*n+j]*dt3/6.0
	}
	v := Vec{X: eval(0), Y: eval(1)}
	if b.Dim == XYZ {
		v.Z = eval(2)
	}
	return v
}

// NearestEpochOffset returns t − (t0 + n·p) for the orbit cycle n closest to t.
func NearestEpochOffset(t, t0, p float64) float64 {
	epoch := math.Floor((t - t0 + 0.5*p) / p)
	return t - (t0 + epoch*p)
}

// Eval evaluates a basis built at mid-transit for the transit nearest to t.
// At t = t0 the zeroth-order coefficients are returned exactly.
func (b Basis) Eval(t, t0, p float64) Vec {
	return b.At(NearestEpochOffset(t, t0, p))
}

// EvalBatch evaluates b at every time, preserving input order.
func (b Basis) EvalBatch(times []float64, t0, p float64) []Vec {
	out := make([]Vec, len(times))
	for i, t := range times {
		out[i] = b.Eval(t, t0, p)
	}
	return out
}
