package linethermal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/brpaterson/linethermal/internal/rootfind"
)

// DefaultRiskBands returns the NBR 5422-style classification table used
// when no configuration overrides it: <1% Low, 1-5% Moderate, 5-10%
// High, >10% Critical, each thresholded at the probability the band
// begins at.
func DefaultRiskBands() []RiskBand {
	return []RiskBand{
		{Threshold: 0, Class: RiskLow, Recommendation: "Normal operation; periodic review per schedule."},
		{Threshold: 0.01, Class: RiskModerate, Recommendation: "Intensify temperature monitoring; review ambient conditions during load peaks."},
		{Threshold: 0.05, Class: RiskHigh, Recommendation: "Review operational current limits; evaluate cooling improvements."},
		{Threshold: 0.10, Class: RiskCritical, Recommendation: "Reduce operating load immediately; investigate overload causes."},
	}
}

// ClassifyRisk maps an exceedance probability onto the highest band
// whose threshold it has reached, per the ordered table convention
// (bands must be sorted ascending by Threshold; DefaultRiskBands
// already is).
func ClassifyRisk(bands []RiskBand, risk float64) (RiskClass, string) {
	class, recommendation := RiskLow, "Normal operation."
	for _, b := range bands {
		if risk >= b.Threshold {
			class, recommendation = b.Class, b.Recommendation
		}
	}
	return class, recommendation
}

// RiskOutcome is the reduction of one temperature sample into the
// decision quantities of spec.md §4.5.
type RiskOutcome struct {
	MeanC          float64
	P90C           float64
	P95C           float64
	Risk           float64 // P(T_c > T_max), strict inequality
	Class          RiskClass
	Recommendation string
}

// AnalyzeRisk reduces a Monte Carlo temperature sample against a design
// temperature and a risk-band table. The sample must be non-empty;
// callers are expected to have already applied the degradation check
// via TemperatureSample.Degraded.
func AnalyzeRisk(sample TemperatureSample, maxTempC float64, confidencePercentile float64, bands []RiskBand) (RiskOutcome, error) {
	if len(sample.Values) == 0 {
		return RiskOutcome{}, wrap(ErrNumeric, "risk analysis requires a non-empty temperature sample")
	}
	if len(bands) == 0 {
		bands = DefaultRiskBands()
	}

	sorted := append([]float64(nil), sample.Values...)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	p90 := stat.Quantile(confidencePercentile/100, stat.LinInterp, sorted, nil)
	p95 := stat.Quantile(0.95, stat.LinInterp, sorted, nil)

	risk := exceedanceProbability(sorted, maxTempC)
	class, recommendation := ClassifyRisk(bands, risk)

	return RiskOutcome{
		MeanC:          mean,
		P90C:           p90,
		P95C:           p95,
		Risk:           risk,
		Class:          class,
		Recommendation: recommendation,
	}, nil
}

// exceedanceProbability counts the strict excess fraction required by
// spec.md §4.5 ("risk monotonicity" is non-increasing in maxTempC since
// the counted set can only shrink as the threshold rises).
func exceedanceProbability(sortedValues []float64, maxTempC float64) float64 {
	idx := sort.Search(len(sortedValues), func(i int) bool { return sortedValues[i] > maxTempC })
	exceed := len(sortedValues) - idx
	return float64(exceed) / float64(len(sortedValues))
}

// ConfidenceInterval returns the [lo, hi] bound at the given confidence
// level (e.g. 0.95) via the same linear-interpolated quantile estimator
// used for p90/p95, generalizing it to an arbitrary two-sided level.
func ConfidenceInterval(values []float64, level float64) (lo, hi float64, err error) {
	if len(values) < 2 {
		return 0, 0, wrap(ErrNumeric, "confidence interval requires at least 2 samples")
	}
	if level <= 0 || level >= 1 {
		return 0, 0, wrap(ErrConfig, "confidence level must be in (0,1), got %g", level)
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	alpha := 1 - level
	lo = stat.Quantile(alpha/2, stat.LinInterp, sorted, nil)
	hi = stat.Quantile(1-alpha/2, stat.LinInterp, sorted, nil)
	return lo, hi, nil
}

// DiagnoseNormality runs a quick skewness/kurtosis based screen on the
// sample, surfaced only for diagnostic purposes (spec.md §9 open
// question: no full Shapiro-Wilk is attempted, matching the
// lighter-weight check the corpus's numerical stack supports without
// pulling a statistics-test package).
func DiagnoseNormality(values []float64) NormalityDiagnostic {
	if len(values) < 3 {
		return NormalityDiagnostic{}
	}
	skew := stat.Skew(values, nil)
	kurt := stat.ExKurtosis(values, nil)
	return NormalityDiagnostic{
		Skewness:            skew,
		Kurtosis:            kurt,
		ApproximatelyNormal: math.Abs(skew) < 0.5 && math.Abs(kurt) < 1.0,
	}
}

// defaultArrheniusFactor is the activation-energy-derived constant used
// absent a material-specific override; matches the conservative
// insulation-aging value the original risk report used for its
// illustrative estimate.
const defaultArrheniusFactor = 15000.0

// LifeReduction estimates the relative remaining life of the conductor
// (or its fittings' insulation) from the sample's mean operating
// temperature against a nominal design temperature, via the Arrhenius
// relation. A factor of 1 means no reduction; values below 1 mean
// accelerated aging relative to the nominal temperature.
func LifeReduction(meanTempC, nominalTempC float64, arrheniusFactor float64) float64 {
	if arrheniusFactor <= 0 {
		arrheniusFactor = defaultArrheniusFactor
	}
	nominalK := nominalTempC + 273.15
	operatingK := meanTempC + 273.15
	reductionFactor := math.Exp(arrheniusFactor * (1/nominalK - 1/operatingK))
	if reductionFactor <= 0 || math.IsInf(reductionFactor, 0) || math.IsNaN(reductionFactor) {
		return 0
	}
	return 1.0 / reductionFactor
}

// ampacityObjective evaluates, for a fixed ambient Monte Carlo request
// and a candidate current, the signed gap between T_c_p90(I) and the
// design temperature. It is strictly increasing in I per the thermal
// monotonicity property, so a single bracketing root find suffices in
// the common case.
func ampacityObjective(model *ThermalModel, req MonteCarloRequest, maxTempC float64) func(currentA float64) float64 {
	return func(currentA float64) float64 {
		r := req
		r.CurrentA = currentA
		mc := RunMonteCarlo(model, r)
		if len(mc.Sample.Values) == 0 {
			return math.NaN()
		}
		sorted := append([]float64(nil), mc.Sample.Values...)
		sort.Float64s(sorted)
		p90 := stat.Quantile(0.90, stat.LinInterp, sorted, nil)
		return p90 - maxTempC
	}
}

// InvertAmpacity computes, on demand, the current I* for which
// T_c_p90(I*) equals maxTempC under the same ambient sampling as req,
// per spec.md §4.5. It first tries a bracketing search over
// [loA, hiA]; since the objective is monotonically increasing in
// current this nearly always succeeds. On bracket failure (degenerate
// ambient input) it falls back to unconstrained Nelder-Mead on the
// squared residual, mirroring how the teacher's solver dispatches to an
// alternate method when its primary one fails to converge.
func InvertAmpacity(model *ThermalModel, req MonteCarloRequest, maxTempC, loA, hiA float64) (float64, error) {
	objective := ampacityObjective(model, req, maxTempC)

	if root, err := rootfind.Brent(objective, loA, hiA, rootfind.Settings{Tolerance: 1e-2}); err == nil {
		return root, nil
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			gap := objective(x[0])
			if math.IsNaN(gap) {
				return math.Inf(1)
			}
			return gap * gap
		},
	}
	initial := []float64{(loA + hiA) / 2}
	result, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, wrap(ErrSolver, "ampacity inversion failed to bracket and fallback optimizer failed: %v", err)
	}
	return result.X[0], nil
}
