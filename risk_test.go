package linethermal

import (
	"math"
	"testing"
)

func sampleOf(values []float64) TemperatureSample {
	return TemperatureSample{Values: values, Requested: len(values)}
}

func linspace(lo, hi float64, n int) []float64 {
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return values
}

func TestAnalyzeRiskPercentileOrdering(t *testing.T) {
	values := linspace(50, 90, 200)
	outcome, err := AnalyzeRisk(sampleOf(values), 75, 90, nil)
	if err != nil {
		t.Fatalf("AnalyzeRisk: %v", err)
	}
	if outcome.P90C > outcome.P95C {
		t.Errorf("p90 (%g) must not exceed p95 (%g)", outcome.P90C, outcome.P95C)
	}
	if outcome.MeanC < values[0] || outcome.MeanC > values[len(values)-1] {
		t.Errorf("mean %g out of sample range", outcome.MeanC)
	}
}

func TestAnalyzeRiskMonotonicInMaxTemp(t *testing.T) {
	values := linspace(50, 90, 200)
	var prev float64 = 2
	for i, maxTemp := range []float64{60, 70, 80, 90, 100} {
		outcome, err := AnalyzeRisk(sampleOf(values), maxTemp, 90, nil)
		if err != nil {
			t.Fatalf("AnalyzeRisk: %v", err)
		}
		if i > 0 && outcome.Risk > prev {
			t.Errorf("risk must be non-increasing in maxTempC: at %g got %g, previous %g", maxTemp, outcome.Risk, prev)
		}
		prev = outcome.Risk
	}
}

func TestAnalyzeRiskEmptySampleErrors(t *testing.T) {
	_, err := AnalyzeRisk(sampleOf(nil), 75, 90, nil)
	if err == nil {
		t.Fatal("expected an error for an empty temperature sample")
	}
}

func TestClassifyRiskBands(t *testing.T) {
	bands := DefaultRiskBands()
	cases := []struct {
		risk float64
		want RiskClass
	}{
		{0, RiskLow},
		{0.005, RiskLow},
		{0.01, RiskModerate},
		{0.049, RiskModerate},
		{0.05, RiskHigh},
		{0.099, RiskHigh},
		{0.10, RiskCritical},
		{0.5, RiskCritical},
	}
	for _, c := range cases {
		class, _ := ClassifyRisk(bands, c.risk)
		if class != c.want {
			t.Errorf("ClassifyRisk(%g) = %s, want %s", c.risk, class, c.want)
		}
	}
}

func TestAnalyzeRiskClassificationScenario(t *testing.T) {
	// 8 of 100 draws exceed the design temperature: risk = 0.08, High band.
	values := make([]float64, 100)
	for i := range values {
		if i < 92 {
			values[i] = 60
		} else {
			values[i] = 80
		}
	}
	outcome, err := AnalyzeRisk(sampleOf(values), 75, 90, nil)
	if err != nil {
		t.Fatalf("AnalyzeRisk: %v", err)
	}
	if math.Abs(outcome.Risk-0.08) > 1e-9 {
		t.Fatalf("expected risk 0.08, got %g", outcome.Risk)
	}
	if outcome.Class != RiskHigh {
		t.Errorf("expected High risk class at risk=0.08, got %s", outcome.Class)
	}
}

func TestConfidenceIntervalBounds(t *testing.T) {
	values := linspace(0, 100, 1000)
	lo, hi, err := ConfidenceInterval(values, 0.95)
	if err != nil {
		t.Fatalf("ConfidenceInterval: %v", err)
	}
	if lo >= hi {
		t.Errorf("lo (%g) must be less than hi (%g)", lo, hi)
	}
	if lo < 0 || hi > 100 {
		t.Errorf("bounds [%g,%g] fall outside the sample range", lo, hi)
	}
	if lo > 5 || hi < 95 {
		t.Errorf("95%% interval [%g,%g] on a uniform [0,100] sample should be close to [2.5,97.5]", lo, hi)
	}
}

func TestConfidenceIntervalRejectsInvalidLevel(t *testing.T) {
	values := linspace(0, 10, 10)
	if _, _, err := ConfidenceInterval(values, 1.5); err == nil {
		t.Error("expected an error for a confidence level outside (0,1)")
	}
	if _, _, err := ConfidenceInterval(values, 0); err == nil {
		t.Error("expected an error for a confidence level of 0")
	}
}

func TestLifeReductionAtNominalTemp(t *testing.T) {
	factor := LifeReduction(90, 90, defaultArrheniusFactor)
	if math.Abs(factor-1) > 1e-9 {
		t.Errorf("life reduction factor at the nominal temperature should be 1, got %g", factor)
	}
}

func TestLifeReductionDecreasesAboveNominal(t *testing.T) {
	nominal := LifeReduction(90, 90, defaultArrheniusFactor)
	hot := LifeReduction(110, 90, defaultArrheniusFactor)
	if hot >= nominal {
		t.Errorf("operating above the nominal temperature should reduce remaining life: nominal=%g hot=%g", nominal, hot)
	}
}

func TestDiagnoseNormalityOnSymmetricSample(t *testing.T) {
	values := linspace(-10, 10, 2001)
	diag := DiagnoseNormality(values)
	if math.Abs(diag.Skewness) > 0.1 {
		t.Errorf("a symmetric sample should have near-zero skewness, got %g", diag.Skewness)
	}
}

func TestDiagnoseNormalityTooFewSamples(t *testing.T) {
	diag := DiagnoseNormality([]float64{1, 2})
	if diag.ApproximatelyNormal {
		t.Error("a degenerate sample of fewer than 3 values should not be reported as approximately normal")
	}
}

func TestInvertAmpacityRecoversKnownCurrent(t *testing.T) {
	model, err := NewThermalModel(testConductor())
	if err != nil {
		t.Fatalf("NewThermalModel: %v", err)
	}

	// Zero-variance moments collapse every Monte Carlo draw onto the
	// deterministic thermal balance, so T_c_p90(I) is just SteadyStateTemp(I)
	// and the target current can be recovered exactly.
	req := MonteCarloRequest{
		Moments: MeteorologicalMoments{
			Ta: InterpolatedField{Mean: 30, Std: 0},
			Qs: InterpolatedField{Mean: 800, Std: 0},
			U:  InterpolatedField{Mean: 2, Std: 0},
			V:  InterpolatedField{Mean: 0, Std: 0},
		},
		AzimuthDeg: 30,
		Iterations: 200,
		Seed:       11,
	}

	targetCurrent := 450.0
	target := req
	target.CurrentA = targetCurrent
	mc := RunMonteCarlo(model, target)
	if len(mc.Sample.Values) == 0 {
		t.Fatal("expected surviving draws to establish the target temperature")
	}
	maxTempC := mc.Sample.Values[0]

	got, err := InvertAmpacity(model, req, maxTempC, 100, 900)
	if err != nil {
		t.Fatalf("InvertAmpacity: %v", err)
	}
	if math.Abs(got-targetCurrent) > 1.0 {
		t.Errorf("InvertAmpacity recovered %g A, want close to %g A", got, targetCurrent)
	}
}

func TestInvertAmpacityFallsBackWhenBracketFails(t *testing.T) {
	model, err := NewThermalModel(testConductor())
	if err != nil {
		t.Fatalf("NewThermalModel: %v", err)
	}
	req := MonteCarloRequest{
		Moments: MeteorologicalMoments{
			Ta: InterpolatedField{Mean: 30, Std: 0},
			Qs: InterpolatedField{Mean: 800, Std: 0},
			U:  InterpolatedField{Mean: 2, Std: 0},
			V:  InterpolatedField{Mean: 0, Std: 0},
		},
		AzimuthDeg: 30,
		Iterations: 200,
		Seed:       11,
	}

	// A bracket that does not span the root (both endpoints give a
	// T_c_p90 well below the 60 °C target) forces the Nelder-Mead fallback.
	got, err := InvertAmpacity(model, req, 60, 590, 600)
	if err != nil {
		t.Fatalf("InvertAmpacity fallback: %v", err)
	}

	verify := req
	verify.CurrentA = got
	mc := RunMonteCarlo(model, verify)
	if len(mc.Sample.Values) == 0 {
		t.Fatal("expected surviving draws at the fallback-recovered current")
	}
	if math.Abs(mc.Sample.Values[0]-60) > 1.0 {
		t.Errorf("fallback-recovered current %g A gives T_c=%g, want close to the 60 target", got, mc.Sample.Values[0])
	}
}
