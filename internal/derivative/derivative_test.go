package derivative

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/star/orbitgo/internal/orbit"
)

var hotJupiter = orbit.Elements{T0: 0, P: 3.5, A: 10.0, I: 1.55, E: 0.0, W: 0.0}

func testElements() []orbit.Elements {
	return []orbit.Elements{
		hotJupiter,
		{T0: 1.2, P: 3.5, A: 10.0, I: 1.55, E: 0.2, W: 0.8},
		{T0: -4.0, P: 12.0, A: 25.0, I: math.Pi / 2, E: 0.5, W: -1.3},
		{T0: 0.0, P: 80.0, A: 70.0, I: 0.01, E: 0.9, W: 2.0},
	}
}

var central = &fd.Settings{Formula: fd.Central, Step: 1e-5}

// moved returns el with parameter k set to v.
func moved(el orbit.Elements, k int, v float64) orbit.Elements {
	switch k {
	case T0:
		el.T0 = v
	case P:
		el.P = v
	case A:
		el.A = v
	case I:
		el.I = v
	case E:
		el.E = v
	case W:
		el.W = v
	}
	return el
}

func value(el orbit.Elements, k int) float64 {
	return [NumParams]float64{el.T0, el.P, el.A, el.I, el.E, el.W}[k]
}

// TestPositionDerivatives compares the zeroth-order derivative coefficients
// with a central-difference reference on the exact Kepler position.
func TestPositionDerivatives(t *testing.T) {
	const step = 1e-6
	const phase = 0.07
	for _, el := range testElements() {
		_, set, err := Compute(phase, el, step, orbit.XYZ)
		if err != nil {
			t.Fatalf("Compute(%+v) failed: %v", el, err)
		}
		for k := P; k < NumParams; k++ {
			comp := []func(orbit.Vec) float64{
				func(v orbit.Vec) float64 { return v.X },
				func(v orbit.Vec) float64 { return v.Y },
				func(v orbit.Vec) float64 { return v.Z },
			}
			for c, get := range comp {
				ref := fd.Derivative(func(x float64) float64 {
					pos, err := orbit.Position(phase, moved(el, k, x))
					if err != nil {
						return math.NaN()
					}
					return get(pos)
				}, value(el, k), central)
				got := set.Basis(k).Coeff(0, c)
				if tol := 5e-3 * (1 + math.Abs(ref)); math.Abs(got-ref) > tol {
					t.Errorf("e=%g i=%g param %d comp %d: got %g, want %g", el.E, el.I, k, c, got, ref)
				}
			}
		}
	}
}

// TestEpochRowIsNegativeVelocity verifies that the t0 row is −∂position/∂t.
func TestEpochRowIsNegativeVelocity(t *testing.T) {
	const step = 1e-6
	for _, el := range testElements() {
		c0, set, err := Compute(0, el, step, orbit.XYZ)
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		v := c0.Velocity()
		d := set.Basis(T0).Position()
		for c, pair := range [][2]float64{{d.X, v.X}, {d.Y, v.Y}, {d.Z, v.Z}} {
			if tol := 1e-3 * (1 + math.Abs(pair[1])); math.Abs(pair[0]+pair[1]) > tol {
				t.Errorf("e=%g comp %d: t0 row %g, velocity %g", el.E, c, pair[0], pair[1])
			}
		}
	}
}

// TestDistanceGradient compares projected-distance partials near transit
// with central differences of the exact projected distance.
func TestDistanceGradient(t *testing.T) {
	const step = 1e-6
	for _, el := range testElements()[:2] {
		times := []float64{el.T0 - 0.05, el.T0 - 0.02, el.T0 + 0.01, el.T0 + 0.04}
		grad, err := DistanceGradient(times, el, step)
		if err != nil {
			t.Fatalf("DistanceGradient failed: %v", err)
		}
		if r, c := grad.Dims(); r != NumParams || c != len(times) {
			t.Fatalf("expected (%d, %d) matrix, got (%d, %d)", NumParams, len(times), r, c)
		}
		for j, tm := range times {
			for k := 0; k < NumParams; k++ {
				ref := fd.Derivative(func(x float64) float64 {
					pel := moved(el, k, x)
					pos, err := orbit.Position(tm-pel.T0, pel)
					if err != nil {
						return math.NaN()
					}
					return pos.ProjectedDistance()
				}, value(el, k), central)
				got := grad.At(k, j)
				if tol := 1e-3 * (1 + math.Abs(ref)); math.Abs(got-ref) > tol {
					t.Errorf("e=%g t=%g param %d: got %g, want %g", el.E, tm, k, got, ref)
				}
			}
		}
	}

	grad, err := DistanceGradient(nil, hotJupiter, step)
	if err != nil {
		t.Fatalf("DistanceGradient with no times failed: %v", err)
	}
	if r, c := grad.Dims(); r != 0 || c != 0 {
		t.Errorf("expected empty matrix for no times, got (%d, %d)", r, c)
	}
	if _, err := DistanceGradient(nil, hotJupiter, 0); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("expected ErrInvalidStep with no times, got %v", err)
	}
}

// stepTolerance bounds the forward-difference error of an order-n coefficient:
// step times the coefficient's natural scale a·(2π/p)^n, with headroom.
func stepTolerance(el orbit.Elements, order int, step float64) float64 {
	return 10 * step * el.A * math.Pow(2*math.Pi/el.P, float64(order))
}

// TestStepInsensitivity verifies derivatives agree across reasonable steps to
// within the forward-difference error of the coarser step, and that the
// default step converges on a much finer one.
func TestStepInsensitivity(t *testing.T) {
	const coarseStep = 1e-3
	el := hotJupiter
	_, coarse, err := Compute(0, el, coarseStep, orbit.XY)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	_, fine, err := Compute(0, el, DefaultStep, orbit.XY)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	_, ref, err := Compute(0, el, 1e-6, orbit.XY)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	n := int(orbit.XY)
	for k := 0; k < NumParams; k++ {
		for i := 0; i < orbit.XY.Len(); i++ {
			order := i / n
			a, b := coarse.Bases[k].Coeffs[i], fine.Bases[k].Coeffs[i]
			if tol := stepTolerance(el, order, coarseStep); math.Abs(a-b) > tol {
				t.Errorf("param %d coeff %d: step 1e-3 gives %g, step 1e-4 gives %g (tol %g)", k, i, a, b, tol)
			}
			if order > 2 {
				continue
			}
			r := ref.Bases[k].Coeffs[i]
			if tol := stepTolerance(el, order, DefaultStep); math.Abs(b-r) > tol {
				t.Errorf("param %d coeff %d: step 1e-4 gives %g, step 1e-6 gives %g (tol %g)", k, i, b, r, tol)
			}
		}
	}
}

// TestBatchLayout verifies row and column order of the (7, N) result.
func TestBatchLayout(t *testing.T) {
	el := testElements()[1]
	c0, set, err := Compute(0, el, DefaultStep, orbit.XY)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	times := []float64{el.T0 + 0.03, el.T0 - 0.04, el.T0 + 3*el.P, el.T0 - 0.01}
	res := set.DistanceWithDerivativesBatch(times, el.T0, el.P, c0)
	if r, c := res.Dims(); r != NumParams+1 || c != len(times) {
		t.Fatalf("expected (%d, %d) matrix, got (%d, %d)", NumParams+1, len(times), r, c)
	}
	for j, tm := range times {
		want := set.DistanceWithDerivatives(tm, el.T0, el.P, c0)
		for r, v := range want {
			if res.At(r, j) != v {
				t.Errorf("column %d row %d: got %g, want %g", j, r, res.At(r, j), v)
			}
		}
		if d := Distance(tm, el.T0, el.P, c0); want[0] != d {
			t.Errorf("column %d: row 0 %g differs from distance %g", j, want[0], d)
		}
		c := c0.Eval(tm, el.T0, el.P)
		dd := set.DistanceDerivatives(tm, el.T0, el.P, c.X, c.Y)
		for k, v := range dd {
			if want[k+1] != v {
				t.Errorf("column %d param %d: got %g, want %g", j, k, want[k+1], v)
			}
		}
	}

	if r, c := set.DistanceWithDerivativesBatch(nil, el.T0, el.P, c0).Dims(); r != 0 || c != 0 {
		t.Errorf("expected empty result for no times, got (%d, %d)", r, c)
	}
}

// TestPeriodicEvaluation verifies a later transit sees the same derivatives.
func TestPeriodicEvaluation(t *testing.T) {
	el := hotJupiter
	c0, set, err := Compute(0, el, DefaultStep, orbit.XY)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	a := set.DistanceWithDerivatives(el.T0+0.02, el.T0, el.P, c0)
	b := set.DistanceWithDerivatives(el.T0+5*el.P+0.02, el.T0, el.P, c0)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9*(1+math.Abs(a[i])) {
			t.Errorf("value %d: first transit %g, sixth transit %g", i, a[i], b[i])
		}
	}
}

// TestInvalidStep verifies step validation.
func TestInvalidStep(t *testing.T) {
	for _, step := range []float64{0, -1e-4, math.NaN(), math.Inf(1)} {
		if _, _, err := Compute(0, hotJupiter, step, orbit.XY); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("step %g: expected ErrInvalidStep, got %v", step, err)
		}
		if _, err := DistanceGradient([]float64{0.01}, hotJupiter, step); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("step %g: expected ErrInvalidStep from DistanceGradient, got %v", step, err)
		}
	}
}

// TestPerturbationLeavesDomain verifies an eccentricity step past one is
// rejected before the solver runs.
func TestPerturbationLeavesDomain(t *testing.T) {
	el := hotJupiter
	el.E = 1 - 0.5*DefaultStep
	calls := 0
	solve := func(float64, orbit.Elements) (orbit.Basis, error) {
		calls++
		return orbit.Basis{Dim: orbit.XY}, nil
	}
	_, err := Coefficients(solve, DirectPerturbations(0, el, DefaultStep), DefaultStep, orbit.Basis{Dim: orbit.XY})
	if !errors.Is(err, orbit.ErrInvalidElement) {
		t.Errorf("expected ErrInvalidElement, got %v", err)
	}
	if calls != E {
		t.Errorf("expected %d solver calls before the eccentricity row, got %d", E, calls)
	}
}

// TestDimensionMismatch verifies bases of different dimensionality are rejected.
func TestDimensionMismatch(t *testing.T) {
	c0, err := orbit.Expand(0, hotJupiter, orbit.XY)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	_, err = Coefficients(ExpandSolver(orbit.XYZ), DirectPerturbations(0, hotJupiter, DefaultStep), DefaultStep, c0)
	if err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

// TestEdgeOnTransitCenter verifies an edge-on circular orbit queried at
// mid-transit, where the projected distance is at rounding level, still
// yields finite partials.
func TestEdgeOnTransitCenter(t *testing.T) {
	el := hotJupiter
	el.I = math.Pi / 2
	c0, set, err := Compute(0, el, DefaultStep, orbit.XY)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	res := set.DistanceWithDerivatives(el.T0, el.T0, el.P, c0)
	if res[0] > 1e-12 {
		t.Errorf("expected near-zero distance, got %g", res[0])
	}
	for k, v := range res[1:] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("param %d: non-finite partial %g", k, v)
		}
	}
}

func BenchmarkDistanceWithDerivatives(b *testing.B) {
	c0, set, err := Compute(0, hotJupiter, DefaultStep, orbit.XY)
	if err != nil {
		b.Fatalf("Compute failed: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = set.DistanceWithDerivatives(0.01+float64(i%100)*1e-4, 0, hotJupiter.P, c0)
	}
}
