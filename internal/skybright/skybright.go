// Public domain.

// Package skybright implements the Krisciunas-Schaefer model of moonlight
// and night sky brightness.
//
// Formulas and constants are from Krisciunas and Schaefer, "A model of the
// brightness of moonlight," PASP 103, 1033 (1991).  Brightnesses are in
// nanolamberts, sky surface brightnesses in V magnitudes per square
// arcsecond.  The model has two free parameters, the zenith sky brightness
// in the absence of the moon and the extinction coefficient.  Everything
// else is viewing geometry.
package skybright

import (
	"math"

	"github.com/soniakeys/unit"
)

// Geom holds the viewing geometry for a single sky brightness prediction.
type Geom struct {
	Alpha unit.Angle // lunar phase angle
	Rho   unit.Angle // angular separation of observed field from moon
	Z     unit.Angle // zenith angle of observed field
	Zm    unit.Angle // zenith angle of moon
}

// Params holds the two free parameters of the model.
type Params struct {
	MDark float64 // zenith sky brightness without moonlight, mag/arcsec²
	KX    float64 // extinction coefficient, mag/airmass
}

// AirmassFunc computes an airmass, the optical path length through the
// atmosphere relative to the path length at the zenith, from a zenith angle.
type AirmassFunc func(z unit.Angle) float64

// Airmass computes airmass by K&S equation 3,
//
//	X(Z) = (1 − 0.96 sin²Z)^(−1/2)
//
// This is the formula as published.  It is monotonic and reasonable up to
// the horizon, where it reaches 5, but past 90° it turns over and decreases
// again, which is not physical.  Callers with fields below the horizon
// should consider AirmassClamped.
func Airmass(z unit.Angle) float64 {
	s := z.Sin()
	return 1 / math.Sqrt(1-.96*s*s)
}

// AirmassClamped computes airmass as Airmass does up to a zenith angle
// of 90° and holds the horizon value 5 beyond, keeping the function
// non-decreasing over all zenith angles.
func AirmassClamped(z unit.Angle) float64 {
	if math.Abs(z.Rad()) >= math.Pi/2 {
		return 5
	}
	return Airmass(z)
}

// XList pairs keywords with airmass formulas.  The keywords are accepted
// in the skyfit config file.
var XList = []struct {
	Name string
	X    AirmassFunc
}{
	{"ks", Airmass}, // the formula as published
	{"clamped", AirmassClamped},
}

// Istar computes the illuminance of the moon outside the atmosphere,
// in footcandles, by K&S equation 20,
//
//	I* = 10^(−0.4 (3.84 + 0.026 |α| + 4×10⁻⁹ α⁴))
//
// with the phase angle α in degrees.  Alpha is 0 at full moon, 90° at
// quarter phase.
func Istar(alpha unit.Angle) float64 {
	a := math.Abs(alpha.Deg())
	return math.Pow(10, -.4*(3.84+.026*a+4e-9*a*a*a*a))
}

// Scatter computes the scattering function f(ρ) of K&S equation 21,
//
//	f(ρ) = 10^5.36 (1.06 + cos²ρ) + 10^(6.15 − ρ/40)
//
// combining Rayleigh scattering by molecules with Mie scattering by
// aerosols.  The cosine term takes ρ as an angle, the Mie exponent takes
// ρ in degrees.  The mixed units are as published and are load bearing
// for the empirical constants.
func Scatter(rho unit.Angle) float64 {
	c := rho.Cos()
	return math.Pow(10, 5.36)*(1.06+c*c) + math.Pow(10, 6.15-rho.Deg()/40)
}

// Model evaluates the brightness model with a configured airmass formula.
type Model struct {
	X AirmassFunc
}

// New returns a Model evaluating brightness with airmass formula x.
// A nil x selects Airmass, the formula as published.
func New(x AirmassFunc) *Model {
	if x == nil {
		x = Airmass
	}
	return &Model{x}
}

// MoonBright computes the brightness of scattered moonlight in the
// observed field, in nanolamberts, by K&S equation 15,
//
//	B_moon = f(ρ) I* 10^(−0.4 k X(Zm)) (1 − 10^(−0.4 k X(Z)))
//
// The first exponential extinguishes moonlight on the way in, the second
// factor is the fraction scattered toward the observer along the line of
// sight.  The result is zero when I* underflows at extreme phase angles
// and is otherwise positive for finite geometry.
func (m *Model) MoonBright(g Geom, p Params) float64 {
	return Scatter(g.Rho) * Istar(g.Alpha) *
		math.Pow(10, -.4*p.KX*m.X(g.Zm)) *
		(1 - math.Pow(10, -.4*p.KX*m.X(g.Z)))
}

// DarkBright computes the moonless sky brightness toward the observed
// field, in nanolamberts, by K&S equation 16,
//
//	B_dark = B_zen 10^(−0.4 k (X(Z)−1)) X(Z)
//
// where B_zen = 34.08 exp(20.7233 − 0.92104 m_dark) converts the dark
// zenith sky magnitude to nanolamberts (equation 1).
func (m *Model) DarkBright(g Geom, p Params) float64 {
	x := m.X(g.Z)
	return 34.08 * math.Exp(20.7233-.92104*p.MDark) *
		math.Pow(10, -.4*p.KX*(x-1)) * x
}

// Sky computes the model sky brightness toward the observed field in
// magnitudes per square arcsecond, by K&S equation 22,
//
//	m_sky = m_dark − 2.5 log₁₀((B_moon + B_dark)/B_dark)
//
// When B_moon is zero the ratio is 1 and the result is exactly p.MDark.
// There is no guard against B_dark underflowing to zero.  Parameter
// values for which it does, extreme KX with large airmass, are outside
// the useful range of the model and yield non-finite results here
// rather than an error.
func (m *Model) Sky(g Geom, p Params) float64 {
	bd := m.DarkBright(g, p)
	return p.MDark - 2.5*math.Log10((m.MoonBright(g, p)+bd)/bd)
}

// Residuals stores observed minus modeled sky brightness for each
// observation in dst and returns it.  A nil dst allocates.  The residuals
// are unweighted, in magnitudes.
func (m *Model) Residuals(dst, mag []float64, g []Geom, p Params) []float64 {
	if dst == nil {
		dst = make([]float64, len(mag))
	}
	for i, gi := range g {
		dst[i] = mag[i] - m.Sky(gi, p)
	}
	return dst
}
