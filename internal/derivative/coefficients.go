// Package derivative finite-differences the position expansion with respect
// to the orbital elements and turns the resulting bases into gradients of the
// projected star-planet distance.
package derivative

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/orbitgo/internal/orbit"
)

// NumParams is the number of parameters in a derivative set.
const NumParams = 6

// Parameter indices in canonical element order.
const (
	T0 = iota
	P
	A
	I
	E
	W
)

// DefaultStep is the perturbation applied to each parameter.
const DefaultStep = 1e-4

// ErrInvalidStep is returned for non-positive or non-finite perturbation steps.
var ErrInvalidStep = errors.New("derivative step must be positive and finite")

// Solver builds a Taylor basis at a phase for a set of elements.
type Solver func(phase float64, el orbit.Elements) (orbit.Basis, error)

// ExpandSolver returns a Solver running the full position expansion.
func ExpandSolver(dim orbit.Dim) Solver {
	return func(phase float64, el orbit.Elements) (orbit.Basis, error) {
		return orbit.Expand(phase, el, dim)
	}
}

// Perturbation is one perturbed evaluation point: the phase and the elements
// the solver runs at.
type Perturbation struct {
	Phase    float64
	Elements orbit.Elements
}

// Set holds ∂basis/∂parameter for each of the six parameters.
type Set struct {
	Step  float64
	Bases [NumParams]orbit.Basis
}

// Basis returns the derivative basis of parameter k.
func (s Set) Basis(k int) orbit.Basis {
	return s.Bases[k]
}

// CheckStep validates a perturbation step.
func CheckStep(step float64) error {
	if !(step > 0) || math.IsInf(step, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidStep, step)
	}
	return nil
}

// DirectPerturbations returns the canonical perturbation scheme around phase.
// Row 0 moves the phase back by step with the elements held fixed, which is
// the derivative with respect to the mid-transit epoch. Rows 1..5 move p, a,
// i, e and w forward by step, one at a time.
func DirectPerturbations(phase float64, el orbit.Elements, step float64) [NumParams]Perturbation {
	var ps [NumParams]Perturbation
	for k := range ps {
		ps[k] = Perturbation{Phase: phase, Elements: el}
	}
	ps[T0].Phase = phase - step
	ps[P].Elements.P += step
	ps[A].Elements.A += step
	ps[I].Elements.I += step
	ps[E].Elements.E += step
	ps[W].Elements.W += step
	return ps
}

// Coefficients runs solve at every perturbation and returns
// (perturbed − c0)/step for each parameter.
func Coefficients(solve Solver, ps [NumParams]Perturbation, step float64, c0 orbit.Basis) (Set, error) {
	if err := CheckStep(step); err != nil {
		return Set{}, err
	}
	set := Set{Step: step}
	for k, pt := range ps {
		if err := pt.Elements.Validate(); err != nil {
			return Set{}, fmt.Errorf("perturbation %d: %w", k, err)
		}
		b, err := solve(pt.Phase, pt.Elements)
		if err != nil {
			return Set{}, fmt.Errorf("perturbation %d: %w", k, err)
		}
		if b.Dim != c0.Dim {
			return Set{}, fmt.Errorf("perturbation %d: basis dimension %s does not match nominal %s", k, b.Dim, c0.Dim)
		}
		set.Bases[k] = b.Sub(c0, step)
	}
	return set, nil
}

// Compute builds the nominal basis at phase and its direct derivative set.
func Compute(phase float64, el orbit.Elements, step float64, dim orbit.Dim) (orbit.Basis, Set, error) {
	if err := el.Validate(); err != nil {
		return orbit.Basis{}, Set{}, err
	}
	solve := ExpandSolver(dim)
	c0, err := solve(phase, el)
	if err != nil {
		return orbit.Basis{}, Set{}, err
	}
	set, err := Coefficients(solve, DirectPerturbations(phase, el, step), step, c0)
	if err != nil {
		return orbit.Basis{}, Set{}, err
	}
	return c0, set, nil
}
