package linethermal

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/brpaterson/linethermal/internal/variogram"
)

// StationSample is one station's projected position and observed scalar
// value for a single hour and variable, the input unit to ordinary
// kriging.
type StationSample struct {
	X, Y  float64
	Value float64
}

// Krige performs ordinary kriging of one meteorological variable from
// station samples onto the supplied target points, fitting the
// variogram model once and reusing its factorized system across every
// target — the amortization the orchestrator relies on per hour.
//
// Per spec.md §4.2: at least two distinct stations are required; fewer
// is reported as ErrCoverage. A target point coincident with a station
// (within 1e-6 m) short-circuits to (value, 0) without solving the
// system. A singular system (collinear or duplicate stations) is
// reported as ErrInterpolation.
func Krige(samples []StationSample, targets []LinePoint, kind variogram.Kind) ([]InterpolatedField, error) {
	n := len(samples)
	if n < 2 {
		return nil, wrap(ErrCoverage, "kriging requires at least 2 stations, got %d", n)
	}

	model := fitVariogram(samples, kind)

	gamma := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h := dist(samples[i].X, samples[i].Y, samples[j].X, samples[j].Y)
			gamma.Set(i, j, model.Gamma(h))
		}
		gamma.Set(i, n, 1)
		gamma.Set(n, i, 1)
	}
	gamma.Set(n, n, 0)

	var lu mat.LU
	lu.Factorize(gamma)
	if cond := lu.Cond(); math.IsNaN(cond) || math.IsInf(cond, 0) || cond > 1e14 {
		return nil, wrap(ErrInterpolation, "kriging system is ill-conditioned (collinear or duplicate stations)")
	}

	fields := make([]InterpolatedField, len(targets))
	rhs := mat.NewVecDense(n+1, nil)
	weights := mat.NewVecDense(n+1, nil)

	for ti, target := range targets {
		if coincident, value := coincidentStation(samples, target); coincident {
			fields[ti] = InterpolatedField{Mean: value, Std: 0}
			continue
		}

		for i := 0; i < n; i++ {
			h := dist(samples[i].X, samples[i].Y, target.X, target.Y)
			rhs.SetVec(i, model.Gamma(h))
		}
		rhs.SetVec(n, 1)

		if err := lu.SolveVecTo(weights, false, rhs); err != nil {
			return nil, wrap(ErrInterpolation, "kriging solve failed: %v", err)
		}

		var mean float64
		for i := 0; i < n; i++ {
			mean += weights.AtVec(i) * samples[i].Value
		}

		var variance float64
		for i := 0; i < n; i++ {
			variance += weights.AtVec(i) * rhs.AtVec(i)
		}
		variance += weights.AtVec(n) // Lagrange multiplier term
		if variance < 0 {
			variance = 0
		}

		if !isFiniteF(mean) || !isFiniteF(variance) {
			return nil, wrap(ErrInterpolation, "kriging produced a non-finite result")
		}

		fields[ti] = InterpolatedField{Mean: mean, Std: math.Sqrt(variance)}
	}

	return fields, nil
}

// fitVariogram fits the experimental variogram for the current hour's
// samples: lag distances between every station pair, paired with the
// classical half-squared-difference estimator.
func fitVariogram(samples []StationSample, kind variogram.Kind) variogram.Model {
	n := len(samples)
	var h, g []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			lag := dist(samples[i].X, samples[i].Y, samples[j].X, samples[j].Y)
			diff := samples[i].Value - samples[j].Value
			h = append(h, lag)
			g = append(g, 0.5*diff*diff)
		}
	}
	if len(h) == 0 {
		return variogram.Model{Kind: variogram.Linear, Nugget: 0, Slope: 1}
	}
	return variogram.Fit(kind, h, g)
}

// coincidentStation reports whether the target point sits at a station
// location within floating tolerance, per the kriging exactness
// property (spec.md §8 property 1).
func coincidentStation(samples []StationSample, target LinePoint) (bool, float64) {
	const tol = 1e-6
	for _, s := range samples {
		if dist(s.X, s.Y, target.X, target.Y) < tol {
			return true, s.Value
		}
	}
	return false, 0
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

func isFiniteF(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
