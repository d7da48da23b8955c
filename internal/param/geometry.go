package param

import "math"

const (
	// gravitationalConstant is G in m³ kg⁻¹ s⁻².
	gravitationalConstant = 6.6743e-11
	secondsPerDay         = 86400.0
)

// AFromRhoP returns the scaled semi-major axis a/R⋆ for stellar density rho
// (g/cm³) and period p (days).
func AFromRhoP(rho, p float64) float64 {
	ps := p * secondsPerDay
	return math.Cbrt(gravitationalConstant/(3*math.Pi)) * math.Cbrt(ps*ps*1e3*rho)
}

// RhoFromAP inverts AFromRhoP.
func RhoFromAP(a, p float64) float64 {
	ps := p * secondsPerDay
	return 3 * math.Pi * a * a * a / (gravitationalConstant * ps * ps * 1e3)
}

// IFromBAEW returns the inclination giving impact parameter b at mid-transit.
func IFromBAEW(b, a, e, w float64) float64 {
	return math.Acos(b / TransitDistance(a, e, w))
}

// BFromAIEW returns the impact parameter of an orbit.
func BFromAIEW(a, i, e, w float64) float64 {
	return TransitDistance(a, e, w) * math.Cos(i)
}

// TransitDistance returns the star-planet distance at mid-transit.
func TransitDistance(a, e, w float64) float64 {
	return a * (1 - e*e) / (1 + e*math.Sin(w))
}

// EWFromSqrtE converts √e·cos w and √e·sin w to eccentricity and argument of periastron.
func EWFromSqrtE(secw, sesw float64) (e, w float64) {
	return secw*secw + sesw*sesw, math.Atan2(sesw, secw)
}
