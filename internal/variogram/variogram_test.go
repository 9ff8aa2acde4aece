package variogram

import (
	"math"
	"testing"
)

func TestModelGammaSphericalSillAtRange(t *testing.T) {
	m := Model{Kind: Spherical, Nugget: 1, Sill: 4, Range: 500}
	got := m.Gamma(500)
	want := m.Nugget + m.Sill
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Gamma at the range should equal nugget+sill, got %g want %g", got, want)
	}
	if m.Gamma(1000) != want {
		t.Errorf("Gamma beyond the range should plateau at nugget+sill, got %g", m.Gamma(1000))
	}
}

func TestModelGammaExponentialApproachesSill(t *testing.T) {
	m := Model{Kind: Exponential, Nugget: 0, Sill: 10, Range: 200}
	near := m.Gamma(2000)
	if math.Abs(near-10) > 1e-3 {
		t.Errorf("Gamma far beyond the range should approach the sill, got %g", near)
	}
}

func TestModelGammaLinearIsAffine(t *testing.T) {
	m := Model{Kind: Linear, Nugget: 2, Slope: 0.5}
	if m.Gamma(0) != 2 {
		t.Errorf("Gamma(0) should equal the nugget, got %g", m.Gamma(0))
	}
	if math.Abs(m.Gamma(10)-7) > 1e-9 {
		t.Errorf("Gamma(10) = %g, want 7", m.Gamma(10))
	}
}

func TestFitLinearRecoversKnownSlope(t *testing.T) {
	h := []float64{0, 10, 20, 30, 40}
	gamma := make([]float64, len(h))
	for i, hi := range h {
		gamma[i] = 1 + 2*hi
	}
	m := Fit(Linear, h, gamma)
	if m.Kind != Linear {
		t.Fatalf("expected a linear model, got %v", m.Kind)
	}
	if math.Abs(m.Slope-2) > 1e-6 {
		t.Errorf("fitted slope = %g, want 2", m.Slope)
	}
	if math.Abs(m.Nugget-1) > 1e-6 {
		t.Errorf("fitted nugget = %g, want 1", m.Nugget)
	}
}

func TestFitLinearFallsBackOnDegenerateInput(t *testing.T) {
	m := Fit(Linear, []float64{5}, []float64{5})
	if m.Kind != Linear || m.Slope != 1 || m.Nugget != 0 {
		t.Errorf("expected the linear default fallback for a single lag bin, got %+v", m)
	}
}

func TestFitSphericalRecoversApproximateShape(t *testing.T) {
	trueModel := Model{Kind: Spherical, Nugget: 0.5, Sill: 5, Range: 300}
	h := []float64{50, 100, 150, 200, 250, 300, 400, 500}
	gamma := make([]float64, len(h))
	for i, hi := range h {
		gamma[i] = trueModel.Gamma(hi)
	}
	fitted := Fit(Spherical, h, gamma)
	if fitted.Kind != Spherical {
		t.Fatalf("expected a spherical fit to succeed on clean data, fell back to %v", fitted.Kind)
	}
	if fitted.Sill <= 0 || fitted.Range <= 0 {
		t.Errorf("fitted spherical parameters should be positive, got sill=%g range=%g", fitted.Sill, fitted.Range)
	}
}

func TestFitSphericalFallsBackOnTooFewLags(t *testing.T) {
	m := Fit(Spherical, []float64{10, 20}, []float64{1, 2})
	if m.Kind != Linear {
		t.Errorf("expected a fallback to the linear default with fewer than 3 lag bins, got %v", m.Kind)
	}
}
