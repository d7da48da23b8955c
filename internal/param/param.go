// Package param maps observational parametrizations onto the canonical
// orbital elements and supplies the perturbation vectors that make the
// derivative engine differentiate with respect to the observational
// parameters.
package param

import (
	"fmt"
	"math"

	"github.com/star/orbitgo/internal/derivative"
	"github.com/star/orbitgo/internal/orbit"
)

// Parametrization is a set of fit parameters that determines the canonical elements.
type Parametrization interface {
	// Elements returns the validated canonical elements.
	Elements() (orbit.Elements, error)
	// Perturbations returns one evaluation point per parameter, each moved by
	// step in that parameter with every dependent element recomputed.
	Perturbations(phase, step float64) ([derivative.NumParams]derivative.Perturbation, error)
	// Names lists the parameters in derivative-set order.
	Names() [derivative.NumParams]string
}

// Direct parametrizes the orbit by the canonical elements themselves.
type Direct orbit.Elements

// Elements returns the canonical elements after validation.
func (d Direct) Elements() (orbit.Elements, error) {
	el := orbit.Elements(d)
	if err := el.Validate(); err != nil {
		return orbit.Elements{}, err
	}
	return el, nil
}

// Perturbations returns the one-at-a-time offsets of the canonical elements.
func (d Direct) Perturbations(phase, step float64) ([derivative.NumParams]derivative.Perturbation, error) {
	el, err := d.Elements()
	if err != nil {
		return [derivative.NumParams]derivative.Perturbation{}, err
	}
	return derivative.DirectPerturbations(phase, el, step), nil
}

// Names lists the canonical element names.
func (Direct) Names() [derivative.NumParams]string {
	return [derivative.NumParams]string{"t0", "p", "a", "i", "e", "w"}
}

// DensityImpact parametrizes the orbit by period, stellar density (g/cm³),
// impact parameter and the √e·cos w, √e·sin w pair.
type DensityImpact struct {
	T0   float64
	P    float64
	Rho  float64
	B    float64
	SecW float64
	SesW float64
}

// FromElements derives the density/impact-parameter form of el.
func FromElements(el orbit.Elements) DensityImpact {
	se := math.Sqrt(el.E)
	return DensityImpact{
		T0:   el.T0,
		P:    el.P,
		Rho:  RhoFromAP(el.A, el.P),
		B:    BFromAIEW(el.A, el.I, el.E, el.W),
		SecW: se * math.Cos(el.W),
		SesW: se * math.Sin(el.W),
	}
}

// Names lists the observational parameter names.
func (DensityImpact) Names() [derivative.NumParams]string {
	return [derivative.NumParams]string{"t0", "p", "rho", "b", "secw", "sesw"}
}

// Elements converts to canonical elements.
func (d DensityImpact) Elements() (orbit.Elements, error) {
	return d.elements(d.P, d.Rho, d.B, d.SecW, d.SesW)
}

func (d DensityImpact) elements(p, rho, b, secw, sesw float64) (orbit.Elements, error) {
	if !(rho > 0) {
		return orbit.Elements{}, fmt.Errorf("%w: stellar density %g must be positive", orbit.ErrInvalidElement, rho)
	}
	if !(p > 0) {
		return orbit.Elements{}, fmt.Errorf("%w: period %g must be positive", orbit.ErrInvalidElement, p)
	}
	a := AFromRhoP(rho, p)
	e, w := EWFromSqrtE(secw, sesw)
	el := orbit.Elements{T0: d.T0, P: p, A: a, E: e, W: w}
	if err := el.Validate(); err != nil {
		return orbit.Elements{}, err
	}
	if b < 0 || b > TransitDistance(a, e, w) {
		return orbit.Elements{}, fmt.Errorf("%w: impact parameter %g outside [0, %g]", orbit.ErrInvalidElement, b, TransitDistance(a, e, w))
	}
	el.I = IFromBAEW(b, a, e, w)
	return el, nil
}

// Perturbations moves each observational parameter by step and recomputes
// every canonical element that depends on it: p moves a and i, rho moves a
// and i, b moves i, and each √e term moves e, w and i.
func (d DensityImpact) Perturbations(phase, step float64) ([derivative.NumParams]derivative.Perturbation, error) {
	var ps [derivative.NumParams]derivative.Perturbation

	el, err := d.Elements()
	if err != nil {
		return ps, err
	}
	ps[0] = derivative.Perturbation{Phase: phase - step, Elements: el}

	moved := [derivative.NumParams - 1][5]float64{
		{d.P + step, d.Rho, d.B, d.SecW, d.SesW},
		{d.P, d.Rho + step, d.B, d.SecW, d.SesW},
		{d.P, d.Rho, d.B + step, d.SecW, d.SesW},
		{d.P, d.Rho, d.B, d.SecW + step, d.SesW},
		{d.P, d.Rho, d.B, d.SecW, d.SesW + step},
	}
	for k, v := range moved {
		pel, err := d.elements(v[0], v[1], v[2], v[3], v[4])
		if err != nil {
			return ps, fmt.Errorf("perturbing %s: %w", d.Names()[k+1], err)
		}
		ps[k+1] = derivative.Perturbation{Phase: phase, Elements: pel}
	}
	return ps, nil
}

// Coefficients builds the nominal basis at phase and its derivative set with
// respect to the parameters of pz.
func Coefficients(phase float64, pz Parametrization, step float64, dim orbit.Dim) (orbit.Basis, derivative.Set, error) {
	if err := derivative.CheckStep(step); err != nil {
		return orbit.Basis{}, derivative.Set{}, err
	}
	el, err := pz.Elements()
	if err != nil {
		return orbit.Basis{}, derivative.Set{}, err
	}
	ps, err := pz.Perturbations(phase, step)
	if err != nil {
		return orbit.Basis{}, derivative.Set{}, err
	}
	solve := derivative.ExpandSolver(dim)
	c0, err := solve(phase, el)
	if err != nil {
		return orbit.Basis{}, derivative.Set{}, err
	}
	set, err := derivative.Coefficients(solve, ps, step, c0)
	if err != nil {
		return orbit.Basis{}, derivative.Set{}, err
	}
	return c0, set, nil
}
