package linethermal

import (
	"math"
	"testing"
)

func testMoments() MeteorologicalMoments {
	return MeteorologicalMoments{
		Ta: InterpolatedField{Mean: 28, Std: 2},
		Qs: InterpolatedField{Mean: 700, Std: 100},
		U:  InterpolatedField{Mean: 3, Std: 1},
		V:  InterpolatedField{Mean: 1, Std: 1},
	}
}

func TestRunMonteCarloDeterministic(t *testing.T) {
	model, err := NewThermalModel(testConductor())
	if err != nil {
		t.Fatalf("NewThermalModel: %v", err)
	}
	req := MonteCarloRequest{
		Moments:    testMoments(),
		AzimuthDeg: 45,
		CurrentA:   400,
		Iterations: 500,
		Seed:       0xC0FFEE,
	}

	a := RunMonteCarlo(model, req)
	b := RunMonteCarlo(model, req)

	if len(a.Sample.Values) != len(b.Sample.Values) {
		t.Fatalf("sample size differs between identical seeded runs: %d vs %d", len(a.Sample.Values), len(b.Sample.Values))
	}
	for i := range a.Sample.Values {
		if a.Sample.Values[i] != b.Sample.Values[i] {
			t.Fatalf("draw %d differs between identical seeded runs: %g vs %g", i, a.Sample.Values[i], b.Sample.Values[i])
		}
	}
}

func TestRunMonteCarloDifferentSeedsDiverge(t *testing.T) {
	model, err := NewThermalModel(testConductor())
	if err != nil {
		t.Fatalf("NewThermalModel: %v", err)
	}
	req := testMoments()

	a := RunMonteCarlo(model, MonteCarloRequest{Moments: req, AzimuthDeg: 45, CurrentA: 400, Iterations: 500, Seed: 1})
	b := RunMonteCarlo(model, MonteCarloRequest{Moments: req, AzimuthDeg: 45, CurrentA: 400, Iterations: 500, Seed: 2})

	if len(a.Sample.Values) == 0 || len(b.Sample.Values) == 0 {
		t.Fatal("expected surviving draws in both runs")
	}
	identical := len(a.Sample.Values) == len(b.Sample.Values)
	if identical {
		for i := range a.Sample.Values {
			if a.Sample.Values[i] != b.Sample.Values[i] {
				identical = false
				break
			}
		}
	}
	if identical {
		t.Error("different seeds produced identical sample sequences")
	}
}

func TestRunMonteCarloZeroVarianceCollapse(t *testing.T) {
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
		AzimuthDeg: 0,
		CurrentA:   500,
		Iterations: 200,
		Seed:       7,
	}

	result := RunMonteCarlo(model, req)
	if len(result.Sample.Values) == 0 {
		t.Fatal("expected surviving draws")
	}
	first := result.Sample.Values[0]
	for i, v := range result.Sample.Values {
		if math.Abs(v-first) > 1e-9 {
			t.Errorf("draw %d diverges from the collapsed value: got %g, want %g", i, v, first)
		}
	}
}

func TestWindSpeedDirRoundTrip(t *testing.T) {
	cases := []struct{ u, v float64 }{
		{3, 4}, {-2, 5}, {0, -6}, {-1, -1},
	}
	for _, c := range cases {
		speed, dir := WindSpeedDir(c.u, c.v)
		if speed < 0 {
			t.Errorf("WindSpeedDir(%g,%g): speed must be non-negative, got %g", c.u, c.v, speed)
		}
		if dir < 0 || dir >= 360 {
			t.Errorf("WindSpeedDir(%g,%g): direction must be in [0,360), got %g", c.u, c.v, dir)
		}
		wantSpeed := math.Hypot(c.u, c.v)
		if math.Abs(speed-wantSpeed) > 1e-9 {
			t.Errorf("WindSpeedDir(%g,%g): speed = %g, want %g", c.u, c.v, speed, wantSpeed)
		}
		uBack := speed * math.Sin(dir*math.Pi/180)
		vBack := speed * math.Cos(dir*math.Pi/180)
		if math.Abs(uBack-c.u) > 1e-9 || math.Abs(vBack-c.v) > 1e-9 {
			t.Errorf("WindSpeedDir(%g,%g): recomposed components (%g,%g) do not round-trip", c.u, c.v, uBack, vBack)
		}
	}
}

func TestAttackAngleFoldRange(t *testing.T) {
	cases := []struct{ wind, line float64 }{
		{0, 0}, {90, 0}, {180, 0}, {270, 45}, {45, 45}, {400, 10},
	}
	for _, c := range cases {
		got := attackAngle(c.wind, c.line)
		if got < 0 || got > 90+1e-9 {
			t.Errorf("attackAngle(%g,%g) = %g, want value within [0,90]", c.wind, c.line, got)
		}
	}
}

func TestAttackAngleParallelIsZero(t *testing.T) {
	got := attackAngle(30, 30)
	if math.Abs(got) > 1e-9 {
		t.Errorf("attackAngle for wind parallel to the line should be 0, got %g", got)
	}
}

func TestAttackAnglePerpendicularIsNinety(t *testing.T) {
	got := attackAngle(90, 0)
	if math.Abs(got-90) > 1e-9 {
		t.Errorf("attackAngle for perpendicular wind should be 90, got %g", got)
	}
}
