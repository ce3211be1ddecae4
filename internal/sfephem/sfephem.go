// Public domain.

// Package sfephem computes the viewing geometry behind sky brightness
// observations: where the moon was, how full it was, and the zenith
// angles of moon and observed field.
package sfephem

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/angle"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/observation"
	"github.com/soniakeys/skyfit/internal/sftab"
	"github.com/soniakeys/skyfit/internal/skybright"
	"github.com/soniakeys/unit"
)

// astronomical unit in km
const auKm = 149.59787e6

// earth radii per AU, the scale of parallax constants in obscode files
const erPerAU = 149.59787e9 / 6.37814e6

// Site is an observing location.
type Site struct {
	Lon    unit.Angle // geographic longitude, positive west of Greenwich
	RhoSin float64    // ρ sin φ′, geocentric parallax constant, earth radii
	RhoCos float64    // ρ cos φ′, earth radii
}

// SiteFromCode resolves an MPC observatory code against parallax map pm.
//
// Codes for space based and roving observers carry no parallax constants
// and are an error here.
func SiteFromCode(code string, pm observation.ParallaxMap) (*Site, error) {
	pc, ok := pm[code]
	if !ok {
		return nil, fmt.Errorf("SiteFromCode: unknown observatory code (%s)",
			code)
	}
	if pc == nil {
		return nil, fmt.Errorf(
			"SiteFromCode: no parallax constants for code %s", code)
	}
	// the map carries east longitude and parallax constants scaled
	// to AU
	return &Site{
		Lon:    unit.AngleFromDeg(360 - pc.Longitude.Deg()),
		RhoSin: pc.RhoSinPhi * erPerAU,
		RhoCos: pc.RhoCosPhi * erPerAU,
	}, nil
}

// SiteFromCoords returns the Site at geographic latitude and east
// longitude, in degrees, and height in meters above the ellipsoid.
func SiteFromCoords(latDeg, lonDeg, h float64) *Site {
	s, c := globe.Earth76.ParallaxConstants(unit.AngleFromDeg(latDeg), h)
	return &Site{
		Lon:    unit.AngleFromDeg(-lonDeg),
		RhoSin: s,
		RhoCos: c,
	}
}

// ZenithAngle computes the zenith angle of equatorial coordinates
// seen from the site at jd.
func (s *Site) ZenithAngle(jd float64, ra unit.RA, dec unit.Angle) unit.Angle {
	st := unit.AngleFromSec(sidereal.Apparent(jd).Sec() * 15)
	φ := math.Atan2(s.RhoSin, s.RhoCos)
	return zenith(φ, st.Rad()-s.Lon.Rad()-ra.Rad(), dec.Rad())
}

// Augment computes the viewing geometry for each observation.  It is a
// pure function of the observations and the site; the observations are
// not modified.
func Augment(obs []sftab.Obs, site *Site) []skybright.Geom {
	g := make([]skybright.Geom, len(obs))
	for i, o := range obs {
		g[i] = Geometry(o, site)
	}
	return g
}

// Geometry computes the viewing geometry for a single observation:
// lunar phase angle, separation of the observed field from the moon,
// and the zenith angles of field and moon.
//
// The observation time is taken as JDE directly.  ΔT is around a minute
// over recent decades and moves the moon far less than the accuracy of
// the brightness model.  The moon's place is corrected to the site for
// parallax; the sun's is used geocentrically.  Fields or moon below the
// horizon yield zenith angles past 90° and are not an error.
func Geometry(o sftab.Obs, site *Site) skybright.Geom {
	jde := o.JD

	// apparent place of the moon
	λ, β, Δ := moonposition.Position(jde) // Δ in km
	Δψ, Δε := nutation.Nutation(jde)
	ε := coord.NewObliquity(nutation.MeanObliquity(jde) + Δε)
	moon := new(coord.Equatorial).EclToEq(&coord.Ecliptic{
		Lon: λ + Δψ,
		Lat: β,
	}, ε)

	// topocentric moon, Meeus 40.6 and 40.7
	st := unit.AngleFromSec(sidereal.Apparent(jde).Sec() * 15)
	sπ := moonposition.Parallax(Δ).Sin()
	sδ, cδ := math.Sincos(moon.Dec.Rad())
	H := st.Rad() - site.Lon.Rad() - moon.RA.Rad()
	sH, cH := math.Sincos(H)
	den := cδ - site.RhoCos*sπ*cH
	Δα := math.Atan2(-site.RhoCos*sπ*sH, den)
	αt := moon.RA.Rad() + Δα
	δt := math.Atan2((sδ-site.RhoSin*sπ)*math.Cos(Δα), den)

	// the sun, and the phase angle from elongation and distances,
	// Meeus 48.2 and 48.3
	sunα, sunδ := solar.ApparentEquatorial(jde)
	R := solar.Radius(base.J2000Century(jde)) * auKm
	ψ := angle.Sep(sunα.Angle(), sunδ, moon.RA.Angle(), moon.Dec)
	sψ, cψ := math.Sincos(ψ.Rad())

	φ := math.Atan2(site.RhoSin, site.RhoCos) // geocentric latitude
	return skybright.Geom{
		Alpha: unit.Angle(math.Atan2(R*sψ, Δ-R*cψ)),
		Rho:   angle.Sep(unit.Angle(αt), unit.Angle(δt), o.RA.Angle(), o.Dec),
		Z:     zenith(φ, st.Rad()-site.Lon.Rad()-o.RA.Rad(), o.Dec.Rad()),
		Zm:    zenith(φ, H-Δα, δt),
	}
}

// zenith computes the zenith angle of a direction from its hour angle
// and declination at latitude φ, by the altitude formula, Meeus 13.6.
func zenith(φ, H, δ float64) unit.Angle {
	sφ, cφ := math.Sincos(φ)
	sδ, cδ := math.Sincos(δ)
	sh := sφ*sδ + cφ*cδ*math.Cos(H)
	// rounding can push sh a couple ulp past the domain of asin
	if sh > 1 {
		sh = 1
	} else if sh < -1 {
		sh = -1
	}
	return unit.Angle(math.Pi/2 - math.Asin(sh))
}
