// Public domain.

package skybright_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/soniakeys/skyfit/internal/skybright"
	"github.com/soniakeys/unit"
)

var airmassTestCases = []struct {
	zDeg, want float64
}{
	{0, 1}, // exact
	{30, 1.1470786694},
	{45, 1.3867504906},
	{60, 1.8898223650},
	{90, 5},
}

func TestAirmass(t *testing.T) {
	for _, c := range airmassTestCases {
		x := skybright.Airmass(unit.AngleFromDeg(c.zDeg))
		if math.Abs(x-c.want) > 1e-9 {
			t.Fatal("airmass at", c.zDeg, "=", x, "want", c.want)
		}
	}
	if x := skybright.Airmass(0); x != 1 {
		t.Fatal("airmass at zenith =", x, "want exactly 1")
	}
	// strictly increasing up to the horizon
	x0 := 0.
	for zDeg := 0.; zDeg <= 90; zDeg++ {
		x := skybright.Airmass(unit.AngleFromDeg(zDeg))
		if x <= x0 {
			t.Fatal("airmass not increasing at", zDeg, "deg")
		}
		x0 = x
	}
	// past the horizon the closed form turns over and decreases.
	// nobody has fixed this.  it is the published formula.
	if x := skybright.Airmass(unit.AngleFromDeg(120)); x >= 5 {
		t.Fatal("expected airmass formula to misbehave past 90 deg, got", x)
	}
}

func TestAirmassClamped(t *testing.T) {
	for zDeg := 0.; zDeg < 90; zDeg++ {
		z := unit.AngleFromDeg(zDeg)
		if skybright.AirmassClamped(z) != skybright.Airmass(z) {
			t.Fatal("clamped airmass differs below horizon at", zDeg, "deg")
		}
	}
	for _, zDeg := range []float64{90, 95, 120, 180} {
		if x := skybright.AirmassClamped(unit.AngleFromDeg(zDeg)); x != 5 {
			t.Fatal("clamped airmass at", zDeg, "=", x, "want 5")
		}
	}
}

func TestIstar(t *testing.T) {
	// full moon, K&S figure 1 scale
	if i := skybright.Istar(0); math.Abs(i-.0291072) > 1e-6 {
		t.Fatal("I* at full moon =", i)
	}
	// decreasing away from full
	i0 := skybright.Istar(0)
	for _, aDeg := range []float64{20, 45, 90, 150, 180} {
		i := skybright.Istar(unit.AngleFromDeg(aDeg))
		if i <= 0 || i >= i0 {
			t.Fatal("I* not decreasing at phase angle", aDeg)
		}
		i0 = i
	}
	// sign of the phase angle is irrelevant
	if skybright.Istar(unit.AngleFromDeg(-60)) !=
		skybright.Istar(unit.AngleFromDeg(60)) {
		t.Fatal("I* not symmetric in phase angle")
	}
	// the quartic term underflows I* to zero at extreme angles
	if i := skybright.Istar(unit.AngleFromDeg(720)); i != 0 {
		t.Fatal("I* at 720 deg =", i, "want underflow to 0")
	}
}

func TestScatter(t *testing.T) {
	if f := skybright.Scatter(0); math.Abs(f/1884456.3-1) > 1e-4 {
		t.Fatal("f at 0 separation =", f)
	}
	// decreasing with separation out to 90 deg
	f0 := skybright.Scatter(0)
	for rDeg := 5.; rDeg <= 90; rDeg += 5 {
		f := skybright.Scatter(unit.AngleFromDeg(rDeg))
		if f <= 0 || f >= f0 {
			t.Fatal("f not decreasing at separation", rDeg)
		}
		f0 = f
	}
	// the Rayleigh term rises again toward the antisolar point
	if skybright.Scatter(unit.AngleFromDeg(180)) <=
		skybright.Scatter(unit.AngleFromDeg(90)) {
		t.Fatal("expected Rayleigh term to dominate at 180 deg")
	}
}

func TestMoonBright(t *testing.T) {
	m := skybright.New(nil)
	g := skybright.Geom{
		Rho: unit.AngleFromDeg(60),
	} // full moon, field and moon at zenith
	// with no extinction nothing scatters
	if b := m.MoonBright(g, skybright.Params{MDark: 22}); b != 0 {
		t.Fatal("moonlight with no atmosphere =", b, "want 0")
	}
	// positive for positive extinction
	for _, kx := range []float64{.01, .1, .17, .5, 1, 3} {
		if b := m.MoonBright(g, skybright.Params{MDark: 22, KX: kx}); b <= 0 {
			t.Fatal("moonlight not positive at kx =", kx)
		}
	}
	// scattering grows with optical depth until extinction on the
	// inbound path dominates
	if m.MoonBright(g, skybright.Params{MDark: 22, KX: .05}) >=
		m.MoonBright(g, skybright.Params{MDark: 22, KX: .3}) {
		t.Fatal("expected scattering to grow with small kx")
	}
	// past the turnover, more extinction means less moonlight
	b0 := m.MoonBright(g, skybright.Params{MDark: 22, KX: 1})
	for _, kx := range []float64{1.5, 2, 3, 4} {
		b := m.MoonBright(g, skybright.Params{MDark: 22, KX: kx})
		if b >= b0 {
			t.Fatal("moonlight not decreasing at kx =", kx)
		}
		b0 = b
	}
}

func TestSky(t *testing.T) {
	m := skybright.New(nil)
	p := skybright.Params{MDark: 22, KX: .17}
	// I* underflows, B_moon = 0, and the model reduces exactly to
	// the dark sky value.
	g := skybright.Geom{Alpha: unit.AngleFromDeg(720)}
	if s := m.Sky(g, p); s != p.MDark {
		t.Fatal("dark sky =", s, "want exactly", p.MDark)
	}
	// full moon in the field, everything at zenith.  moonlight
	// dominates by several magnitudes.
	s := m.Sky(skybright.Geom{}, p)
	if s >= 18 || s <= 15 {
		t.Fatal("full moon zenith sky =", s, "want near 16.7")
	}
	// moving the field away from the moon darkens the sky
	// monotonically toward the moonless value.
	gap0 := math.Inf(1)
	for rDeg := 5.; rDeg <= 90; rDeg += 5 {
		g := skybright.Geom{Rho: unit.AngleFromDeg(rDeg)}
		gap := p.MDark - m.Sky(g, p)
		if gap <= 0 {
			t.Fatal("sky brighter than dark limit at separation", rDeg)
		}
		if gap >= gap0 {
			t.Fatal("sky not darkening with separation at", rDeg)
		}
		gap0 = gap
	}
}

func TestResiduals(t *testing.T) {
	m := skybright.New(nil)
	p := skybright.Params{MDark: 21.6, KX: .25}
	g := []skybright.Geom{
		{},
		{Alpha: unit.AngleFromDeg(40), Rho: unit.AngleFromDeg(30),
			Z: unit.AngleFromDeg(20), Zm: unit.AngleFromDeg(50)},
		{Alpha: unit.AngleFromDeg(120), Rho: unit.AngleFromDeg(85),
			Z: unit.AngleFromDeg(65), Zm: unit.AngleFromDeg(10)},
	}
	mag := make([]float64, len(g))
	for i, gi := range g {
		mag[i] = m.Sky(gi, p)
	}
	res := m.Residuals(nil, mag, g, p)
	if len(res) != len(g) {
		t.Fatal("residual length", len(res), "want", len(g))
	}
	// at the generating parameters the residuals vanish identically
	for i, r := range res {
		if r != 0 {
			t.Fatal("residual", i, "=", r, "want 0")
		}
	}
	// perturbing the parameters moves every residual off zero
	res = m.Residuals(res, mag, g, skybright.Params{MDark: 21.5, KX: .25})
	for i, r := range res {
		if r == 0 {
			t.Fatal("residual", i, "unexpectedly 0")
		}
	}
}

func ExampleAirmass() {
	for _, zDeg := range []float64{0, 45, 90} {
		fmt.Printf("%.3f\n", skybright.Airmass(unit.AngleFromDeg(zDeg)))
	}
	// Output:
	// 1.000
	// 1.387
	// 5.000
}

func ExampleModel_Sky() {
	// full moon at the zenith, observed field right on it
	m := skybright.New(nil)
	p := skybright.Params{MDark: 22, KX: .17}
	fmt.Printf("%.2f\n", m.Sky(skybright.Geom{}, p))
	// Output:
	// 16.74
}
