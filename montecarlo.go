package linethermal

import (
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// MeteorologicalMoments is the kriging output for one (point, hour): the
// interpolated mean and estimation standard deviation of each sampled
// variable, the input the Monte Carlo propagator consumes.
type MeteorologicalMoments struct {
	Ta InterpolatedField
	Qs InterpolatedField
	U  InterpolatedField
	V  InterpolatedField
}

// MonteCarloRequest is everything one (point, hour) propagation needs
// beyond the kriged moments: the point's line azimuth, the applicable
// current, the iteration count and the deterministic seed for this task.
type MonteCarloRequest struct {
	Moments    MeteorologicalMoments
	AzimuthDeg float64
	CurrentA   float64
	Iterations int // N, default 10000
	Seed       uint64
}

// MonteCarloResult is the raw output of propagation before risk
// reduction: the surviving temperature sample plus the ambient means
// actually realized (for HourlyResult's descriptive columns) and the
// discard counts broken down by cause, for Diagnostics.
type MonteCarloResult struct {
	Sample            TemperatureSample
	TaMeanC           float64
	QsMeanWm2         float64
	WsMeanMS          float64
	AttackAngleMeanDeg float64
	DiscardedSolver   int
	DiscardedNumeric  int
}

// RunMonteCarlo draws Iterations independent ambient states from the
// kriged Gaussian posteriors, recomposes wind, evaluates the thermal
// model once per draw, and aggregates the surviving temperatures, per
// spec.md §4.4. Safe to call concurrently for different requests; model
// must itself be safe for concurrent use (it is, being stateless).
func RunMonteCarlo(model *ThermalModel, req MonteCarloRequest) MonteCarloResult {
	n := req.Iterations
	if n <= 0 {
		n = 10000
	}

	src := rand.NewSource(req.Seed)
	taDist := distuv.Normal{Mu: req.Moments.Ta.Mean, Sigma: req.Moments.Ta.Std, Src: src}
	qsDist := distuv.Normal{Mu: req.Moments.Qs.Mean, Sigma: req.Moments.Qs.Std, Src: src}
	uDist := distuv.Normal{Mu: req.Moments.U.Mean, Sigma: req.Moments.U.Std, Src: src}
	vDist := distuv.Normal{Mu: req.Moments.V.Mean, Sigma: req.Moments.V.Std, Src: src}

	values := make([]float64, 0, n)
	var taSum, qsSum, wsSum, attackSum float64
	var discardedSolver, discardedNumeric int

	for i := 0; i < n; i++ {
		ta := taDist.Rand()
		qs := qsDist.Rand()
		if qs < 0 {
			qs = 0
		}
		u := uDist.Rand()
		v := vDist.Rand()

		ws, windFromDeg := WindSpeedDir(u, v)
		if ws < 0 {
			ws = 0
		}
		attack := attackAngle(windFromDeg, req.AzimuthDeg)

		tc, err := model.SteadyStateTemp(AmbientState{
			CurrentA:  req.CurrentA,
			TaC:       ta,
			QsWm2:     qs,
			WindMS:    ws,
			AttackDeg: attack,
		})
		if err != nil {
			discardedSolver++
			continue
		}
		if !isFiniteF(tc) {
			discardedNumeric++
			continue
		}

		values = append(values, tc)
		taSum += ta
		qsSum += qs
		wsSum += ws
		attackSum += attack
	}

	survived := len(values)
	result := MonteCarloResult{
		Sample: TemperatureSample{
			Values:    values,
			Requested: n,
			Discarded: discardedSolver + discardedNumeric,
		},
		DiscardedSolver:  discardedSolver,
		DiscardedNumeric: discardedNumeric,
	}
	if survived > 0 {
		result.TaMeanC = taSum / float64(survived)
		result.QsMeanWm2 = qsSum / float64(survived)
		result.WsMeanMS = wsSum / float64(survived)
		result.AttackAngleMeanDeg = attackSum / float64(survived)
	}
	return result
}

// attackAngle folds the angular difference between the meteorological
// wind-from azimuth and the conductor's line azimuth into [0°, 90°]: 0°
// for wind parallel to the conductor, 90° for perpendicular, per
// spec.md §4.4 step 2. The conductor axis has no preferred direction, so
// the 180°-periodic fold via |sin| is taken back to an angle with asin.
func attackAngle(windFromDeg, lineAzimuthDeg float64) float64 {
	diffRad := (windFromDeg - lineAzimuthDeg) * math.Pi / 180
	s := math.Abs(math.Sin(diffRad))
	if s > 1 {
		s = 1
	}
	return math.Asin(s) * 180 / math.Pi
}
