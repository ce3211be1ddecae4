// Public domain.

// Package sfsolver fits model parameters by nonlinear least squares.
//
// The implementation is the damped Gauss-Newton iteration of Levenberg
// and Marquardt, following Madsen, Nielsen and Tingleff, "Methods for
// Non-Linear Least Squares Problems," IMM, Technical University of
// Denmark (2004), algorithm 3.16.  Derivatives are estimated by forward
// differences.  Evaluation is strictly sequential.
package sfsolver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Func is the residual function of a least squares problem.  A Func
// stores in dst the residuals of a model evaluated at parameter values x.
// Fit passes dst of the fixed length m given to it and x of the length
// of the starting point.
type Func func(dst, x []float64)

// Settings adjusts the stopping criteria of Fit.  A zero field selects
// the default for that criterion.
type Settings struct {
	GradTol       float64 // infinity norm of the gradient, default 1e-8
	StepTol       float64 // step size relative to x, default 1e-8
	MaxIterations int     // default 200
}

// defaults for Settings, and the scale of the initial damping
const (
	defGradTol = 1e-8
	defStepTol = 1e-8
	defMaxIter = 200
	tau        = 1e-3
)

// Status explains why Fit stopped iterating.
type Status int

const (
	NotTerminated Status = iota
	GradientThreshold
	StepThreshold
	IterationLimit
)

func (s Status) String() string {
	switch s {
	case GradientThreshold:
		return "gradient within tolerance"
	case StepThreshold:
		return "step within tolerance"
	case IterationLimit:
		return "iteration limit"
	}
	return "not terminated"
}

// Result carries the outcome of a fit.
type Result struct {
	X           []float64     // parameter values at the minimum found
	Status      Status        // why iteration stopped
	Resid       []float64     // residuals at X
	RSS         float64       // sum of squared residuals at X
	Cov         *mat.SymDense // parameter covariance, nil if unavailable
	Iterations  int
	Evaluations int // residual function calls, Jacobian estimation included
}

// Fit minimizes the sum of squared residuals of f by the
// Levenberg-Marquardt algorithm, starting from parameter values x0.
//
// The residual vector filled by f has length m, which must be at least
// len(x0).  Fit stops when the gradient or the step falls within
// tolerance or when the iteration limit is reached, and reports which
// in Result.Status.  Non-convergence is not an error; it is up to the
// caller to judge the result by its status and residuals.
//
// Parameter space is unconstrained.  Nothing rejects values without
// physical meaning; a minimum in an implausible region is reported,
// not corrected.
//
// The parameter covariance in Result.Cov is the inverse of the normal
// matrix at the solution scaled by the residual variance, the usual
// linearized estimate.  It is nil when there are no degrees of freedom
// or the normal matrix is effectively singular.
func Fit(f Func, m int, x0 []float64, s Settings) (*Result, error) {
	n := len(x0)
	switch {
	case n == 0:
		return nil, errors.New("Fit: no parameters")
	case m < n:
		return nil, fmt.Errorf("Fit: %d residuals insufficient for %d parameters", m, n)
	}
	gradTol := s.GradTol
	if gradTol == 0 {
		gradTol = defGradTol
	}
	stepTol := s.StepTol
	if stepTol == 0 {
		stepTol = defStepTol
	}
	maxIter := s.MaxIterations
	if maxIter == 0 {
		maxIter = defMaxIter
	}

	r := &Result{
		X:     append([]float64{}, x0...),
		Resid: make([]float64, m),
	}
	eval := func(dst, x []float64) {
		f(dst, x)
		r.Evaluations++
	}
	eval(r.Resid, r.X)
	r.RSS = floats.Dot(r.Resid, r.Resid)
	if math.IsNaN(r.RSS) || math.IsInf(r.RSS, 0) {
		return nil, errors.New("Fit: residuals not finite at starting point")
	}

	jac := mat.NewDense(m, n, nil)
	jtj := mat.NewSymDense(n, nil)
	damped := mat.NewSymDense(n, nil)
	rvec := mat.NewVecDense(m, r.Resid)
	grad := mat.NewVecDense(n, nil)
	neg := mat.NewVecDense(n, nil)
	step := mat.NewVecDense(n, nil)
	xnew := make([]float64, n)
	rnew := make([]float64, m)
	var chol mat.Cholesky

	// normal equations at the current point
	normal := func() {
		fd.Jacobian(jac, eval, r.X, &fd.JacobianSettings{
			Formula:     fd.Forward,
			OriginValue: r.Resid,
		})
		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), rvec)
	}
	normal()

	mu := 0.
	for i := 0; i < n; i++ {
		if d := jtj.At(i, i); d > mu {
			mu = d
		}
	}
	mu *= tau
	if !(mu > 0) {
		mu = tau
	}
	nu := 2.

	for {
		if floats.Norm(grad.RawVector().Data, math.Inf(1)) <= gradTol {
			r.Status = GradientThreshold
			break
		}
		if r.Iterations >= maxIter {
			r.Status = IterationLimit
			break
		}
		r.Iterations++

		damped.CopySym(jtj)
		for i := 0; i < n; i++ {
			damped.SetSym(i, i, jtj.At(i, i)+mu)
		}
		neg.ScaleVec(-1, grad)
		if !chol.Factorize(damped) || chol.SolveVecTo(step, neg) != nil {
			// not positive definite at this damping.  damp harder.
			mu *= nu
			nu *= 2
			continue
		}
		h := step.RawVector().Data
		if floats.Norm(h, 2) <= stepTol*(floats.Norm(r.X, 2)+stepTol) {
			r.Status = StepThreshold
			break
		}
		floats.AddTo(xnew, r.X, h)
		eval(rnew, xnew)
		rssNew := floats.Dot(rnew, rnew)

		// gain ratio, actual reduction over the reduction predicted
		// by the linearized model
		den := 0.
		for i, hi := range h {
			den += hi * (mu*hi - grad.AtVec(i))
		}
		if rho := (r.RSS - rssNew) / den; rho > 0 {
			copy(r.X, xnew)
			copy(r.Resid, rnew)
			r.RSS = rssNew
			normal()
			t := 2*rho - 1
			mu *= math.Max(1./3, 1-t*t*t)
			nu = 2
		} else {
			mu *= nu
			nu *= 2
		}
	}

	if m > n && chol.Factorize(jtj) {
		var inv mat.SymDense
		if chol.InverseTo(&inv) == nil {
			var cov mat.SymDense
			cov.ScaleSym(r.RSS/float64(m-n), &inv)
			r.Cov = &cov
		}
	}
	return r, nil
}
