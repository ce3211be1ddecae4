// Public domain.

package sfsolver_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/soniakeys/skyfit/internal/sfsolver"
	"github.com/soniakeys/skyfit/internal/skybright"
	"github.com/soniakeys/unit"
)

func TestFitExpDecay(t *testing.T) {
	// amplitude and decay rate of a noiseless exponential
	const a, b = 2.5, .65
	y := make([]float64, 10)
	for i := range y {
		y[i] = a * math.Exp(-b*float64(i))
	}
	fn := func(dst, x []float64) {
		for i := range dst {
			dst[i] = y[i] - x[0]*math.Exp(-x[1]*float64(i))
		}
	}
	res, err := sfsolver.Fit(fn, len(y), []float64{1, .1}, sfsolver.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case res.Status == sfsolver.IterationLimit:
		t.Fatal("fit did not converge:", res.Status)
	case math.Abs(res.X[0]-a) > 1e-6:
		t.Fatal("amplitude =", res.X[0], "want", a)
	case math.Abs(res.X[1]-b) > 1e-6:
		t.Fatal("decay =", res.X[1], "want", b)
	case res.Iterations == 0 || res.Evaluations == 0:
		t.Fatal("no work recorded")
	case res.Cov == nil:
		t.Fatal("missing covariance")
	}
}

func TestFitFlat(t *testing.T) {
	// a residual with no parameter dependence has zero gradient.
	// the fit stops right where it started.
	fn := func(dst, x []float64) {
		for i := range dst {
			dst[i] = 1
		}
	}
	res, err := sfsolver.Fit(fn, 5, []float64{1, 2}, sfsolver.Settings{})
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case res.Status != sfsolver.GradientThreshold:
		t.Fatal("status =", res.Status)
	case res.Iterations != 0:
		t.Fatal("iterations =", res.Iterations, "want 0")
	case res.X[0] != 1 || res.X[1] != 2:
		t.Fatal("parameters moved:", res.X)
	case res.RSS != 5:
		t.Fatal("rss =", res.RSS, "want 5")
	case res.Cov != nil:
		t.Fatal("covariance from a singular normal matrix")
	}
}

func TestFitIterationLimit(t *testing.T) {
	y := make([]float64, 10)
	for i := range y {
		y[i] = 2.5 * math.Exp(-.65*float64(i))
	}
	fn := func(dst, x []float64) {
		for i := range dst {
			dst[i] = y[i] - x[0]*math.Exp(-x[1]*float64(i))
		}
	}
	res, err := sfsolver.Fit(fn, len(y), []float64{1, .1},
		sfsolver.Settings{MaxIterations: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != sfsolver.IterationLimit || res.Iterations != 1 {
		t.Fatal("status =", res.Status, "iterations =", res.Iterations)
	}
}

func TestFitErrors(t *testing.T) {
	fn := func(dst, x []float64) {
		for i := range dst {
			dst[i] = 0
		}
	}
	if _, err := sfsolver.Fit(fn, 1, []float64{1, 2},
		sfsolver.Settings{}); err == nil {
		t.Fatal("expected error for more parameters than residuals")
	}
	if _, err := sfsolver.Fit(fn, 3, nil, sfsolver.Settings{}); err == nil {
		t.Fatal("expected error for no parameters")
	}
	bad := func(dst, x []float64) {
		for i := range dst {
			dst[i] = math.NaN()
		}
	}
	if _, err := sfsolver.Fit(bad, 3, []float64{1},
		sfsolver.Settings{}); err == nil {
		t.Fatal("expected error for non-finite residuals")
	}
}

// Synthesize noiseless sky brightness observations over varied geometry
// and fit them.  The data-generating parameters must come back out.
func TestFitSkyRoundTrip(t *testing.T) {
	truth := skybright.Params{MDark: 21.9, KX: .172}
	m := skybright.New(nil)
	var g []skybright.Geom
	for _, aDeg := range []float64{0, 40, 85, 130, 170} {
		for _, rDeg := range []float64{8, 35, 70, 95} {
			g = append(g, skybright.Geom{
				Alpha: unit.AngleFromDeg(aDeg),
				Rho:   unit.AngleFromDeg(rDeg),
				Z:     unit.AngleFromDeg(math.Mod(aDeg+rDeg, 80)),
				Zm:    unit.AngleFromDeg(math.Mod(aDeg/2+rDeg, 75)),
			})
		}
	}
	mag := make([]float64, len(g))
	for i, gi := range g {
		mag[i] = m.Sky(gi, truth)
	}
	fn := func(dst, x []float64) {
		m.Residuals(dst, mag, g, skybright.Params{MDark: x[0], KX: x[1]})
	}
	res, err := sfsolver.Fit(fn, len(g), []float64{23, .35},
		sfsolver.Settings{GradTol: 1e-12, StepTol: 1e-13})
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case res.Status == sfsolver.IterationLimit:
		t.Fatal("fit did not converge:", res.Status)
	case math.Abs(res.X[0]-truth.MDark) > 1e-6:
		t.Fatal("m_dark =", res.X[0], "want", truth.MDark)
	case math.Abs(res.X[1]-truth.KX) > 1e-7:
		t.Fatal("k_X =", res.X[1], "want", truth.KX)
	case res.RSS > 1e-12:
		t.Fatal("rss =", res.RSS)
	case len(res.Resid) != len(g):
		t.Fatal("residual length", len(res.Resid), "want", len(g))
	case res.Cov == nil:
		t.Fatal("missing covariance")
	case res.Cov.At(0, 0) < 0 || res.Cov.At(1, 1) < 0:
		t.Fatal("negative parameter variance")
	}
}

func ExampleFit() {
	// a line through noiseless points
	y := []float64{3, 1, -1, -3, -5} // 3 - 2t at t = 0..4
	fn := func(dst, x []float64) {
		for i := range dst {
			dst[i] = y[i] - (x[0] + x[1]*float64(i))
		}
	}
	res, err := sfsolver.Fit(fn, len(y), []float64{0, 0}, sfsolver.Settings{})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.3f %.3f\n", res.X[0], res.X[1])
	// Output:
	// 3.000 -2.000
}
