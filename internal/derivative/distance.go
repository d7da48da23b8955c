package derivative

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/star/orbitgo/internal/orbit"
)

// Distance returns the projected distance of the nominal basis at time t.
func Distance(t, t0, p float64, cf orbit.Basis) float64 {
	return cf.Eval(t, t0, p).ProjectedDistance()
}

// DistancePartial returns ∂d/∂k at time t given the nominal position (x, y)
// and the derivative basis dcf of parameter k. At d = 0 the result is not
// finite; transit-centre queries with zero impact parameter are the caller's
// to special-case.
func DistancePartial(t, t0, p, x, y float64, dcf orbit.Basis) float64 {
	d := dcf.Eval(t, t0, p)
	return (0.5 / math.Sqrt(x*x+y*y)) * (2*x*d.X + 2*y*d.Y)
}

// Position returns ∂(x, y[, z])/∂k at time t.
func (s Set) Position(k int, t, t0, p float64) orbit.Vec {
	return s.Bases[k].Eval(t, t0, p)
}

// DistanceDerivatives returns the six partial derivatives of the projected
// distance at time t for a caller-supplied nominal position.
func (s Set) DistanceDerivatives(t, t0, p, x, y float64) [NumParams]float64 {
	var res [NumParams]float64
	for k := range res {
		res[k] = DistancePartial(t, t0, p, x, y, s.Bases[k])
	}
	return res
}

// DistanceWithDerivatives returns the projected distance followed by its six
// partial derivatives.
func (s Set) DistanceWithDerivatives(t, t0, p float64, cf orbit.Basis) [NumParams + 1]float64 {
	var res [NumParams + 1]float64
	c := cf.Eval(t, t0, p)
	res[0] = c.ProjectedDistance()
	for k := 0; k < NumParams; k++ {
		res[k+1] = DistancePartial(t, t0, p, c.X, c.Y, s.Bases[k])
	}
	return res
}

// DistanceWithDerivativesBatch fills a (7, N) matrix: row 0 holds the
// projected distance, rows 1..6 its partial derivatives, one column per time.
// No times yield an empty 0×0 matrix, since mat.Dense has no zero-column shape.
func (s Set) DistanceWithDerivativesBatch(times []float64, t0, p float64, cf orbit.Basis) *mat.Dense {
	if len(times) == 0 {
		return &mat.Dense{}
	}
	res := mat.NewDense(NumParams+1, len(times), nil)
	for j, t := range times {
		s.FillColumn(res, j, t, t0, p, cf)
	}
	return res
}

// FillColumn writes DistanceWithDerivatives at time t into column j of res.
// Distinct columns may be filled concurrently.
func (s Set) FillColumn(res *mat.Dense, j int, t, t0, p float64, cf orbit.Basis) {
	col := s.DistanceWithDerivatives(t, t0, p, cf)
	for r, v := range col {
		res.Set(r, j, v)
	}
}

// DistanceGradient builds the mid-transit basis and its direct derivative
// set for el and returns the (6, N) matrix of projected-distance partials at
// the given times. No times yield an empty 0×0 matrix.
func DistanceGradient(times []float64, el orbit.Elements, step float64) (*mat.Dense, error) {
	c0, set, err := Compute(0, el, step, orbit.XY)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return &mat.Dense{}, nil
	}
	res := mat.NewDense(NumParams, len(times), nil)
	for j, t := range times {
		c := c0.Eval(t, el.T0, el.P)
		for k, v := range set.DistanceDerivatives(t, el.T0, el.P, c.X, c.Y) {
			res.Set(k, j, v)
		}
	}
	return res, nil
}
