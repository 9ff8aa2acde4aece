// Package variogram fits and evaluates experimental variogram models used
// by ordinary kriging. The linear model is the default and is fit by
// plain least squares; spherical and exponential models have a range
// parameter that enters nonlinearly and are fit with Levenberg-Marquardt.
package variogram

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// Kind selects the variogram model shape.
type Kind int

const (
	Linear Kind = iota
	Spherical
	Exponential
)

// Model is a fitted variogram: Gamma(h) gives the semivariance at
// separation distance h. Nugget and Sill/Slope/Range are populated
// according to Kind; unused fields are zero.
type Model struct {
	Kind   Kind
	Nugget float64
	Slope  float64 // Linear only.
	Sill   float64 // Spherical/Exponential only.
	Range  float64 // Spherical/Exponential only.
}

// Gamma evaluates the fitted model at separation distance h.
func (m Model) Gamma(h float64) float64 {
	switch m.Kind {
	case Spherical:
		if m.Range <= 0 {
			return m.Nugget + m.Sill
		}
		r := h / m.Range
		if r >= 1 {
			return m.Nugget + m.Sill
		}
		return m.Nugget + m.Sill*(1.5*r-0.5*r*r*r)
	case Exponential:
		if m.Range <= 0 {
			return m.Nugget + m.Sill
		}
		return m.Nugget + m.Sill*(1-math.Exp(-h/m.Range))
	default:
		return m.Nugget + m.Slope*h
	}
}

// Fit estimates model parameters from experimental (h, gamma) pairs —
// lag distances and the corresponding half-squared-difference estimator
// values. A linear model that fits to a non-positive slope, or a
// nonlinear model whose optimizer fails or returns a non-positive
// sill/range, falls back to the linear default (nugget=0, slope=1), per
// the conductor risk engine's variogram contract.
func Fit(kind Kind, h, gamma []float64) Model {
	switch kind {
	case Spherical, Exponential:
		if m, err := fitNonlinear(kind, h, gamma); err == nil {
			return m
		}
		return Model{Kind: Linear, Nugget: 0, Slope: 1}
	default:
		return fitLinear(h, gamma)
	}
}

// fitLinear solves the OLS normal equations for gamma = c0 + s*h.
func fitLinear(h, gamma []float64) Model {
	n := len(h)
	if n < 2 {
		return Model{Kind: Linear, Nugget: 0, Slope: 1}
	}

	a := mat.NewDense(n, 2, nil)
	b := mat.NewVecDense(n, nil)
	for i := range h {
		a.SetRow(i, []float64{1, h[i]})
		b.SetVec(i, gamma[i])
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var x mat.VecDense
	if err := x.SolveVec(&ata, &atb); err != nil {
		return Model{Kind: Linear, Nugget: 0, Slope: 1}
	}

	nugget, slope := x.AtVec(0), x.AtVec(1)
	if !isFinite(nugget) || !isFinite(slope) || slope <= 0 || nugget < 0 {
		return Model{Kind: Linear, Nugget: 0, Slope: 1}
	}
	return Model{Kind: Linear, Nugget: nugget, Slope: slope}
}

// fitNonlinear fits the spherical/exponential model via Levenberg-Marquardt
// on parameters [nugget, sill, range].
func fitNonlinear(kind Kind, h, gamma []float64) (Model, error) {
	n := len(h)
	if n < 3 {
		return Model{}, fmt.Errorf("variogram: need at least 3 lag bins to fit %v", kind)
	}

	maxGamma := 0.0
	maxH := 0.0
	for i := range h {
		if gamma[i] > maxGamma {
			maxGamma = gamma[i]
		}
		if h[i] > maxH {
			maxH = h[i]
		}
	}
	if maxGamma <= 0 || maxH <= 0 {
		return Model{}, fmt.Errorf("variogram: degenerate experimental variogram")
	}

	eval := func(p []float64, hi float64) float64 {
		nugget, sill, rang := p[0], p[1], p[2]
		m := Model{Kind: kind, Nugget: nugget, Sill: sill, Range: rang}
		return m.Gamma(hi)
	}

	fnc := func(dst, p []float64) {
		for i := range h {
			dst[i] = eval(p, h[i]) - gamma[i]
		}
	}

	jac := lm.NumJac{Func: fnc}
	init := []float64{0, maxGamma, maxH / 2}

	problem := lm.LMProblem{
		Dim:        3,
		Size:       n,
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: init,
		Tau:        1e-13,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	var fitErr error
	var params []float64
	func() {
		defer func() {
			if r := recover(); r != nil {
				fitErr = fmt.Errorf("variogram: optimizer panicked: %v", r)
			}
		}()
		res, err := lm.LM(problem, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-12})
		if err != nil {
			fitErr = err
			return
		}
		params = res.X
	}()
	if fitErr != nil {
		return Model{}, fitErr
	}

	nugget, sill, rang := params[0], params[1], params[2]
	if !isFinite(nugget) || !isFinite(sill) || !isFinite(rang) || sill <= 0 || rang <= 0 || nugget < 0 {
		return Model{}, fmt.Errorf("variogram: fitted parameters out of range")
	}
	return Model{Kind: kind, Nugget: nugget, Sill: sill, Range: rang}, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
