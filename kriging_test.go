package linethermal

import (
	"errors"
	"math"
	"testing"

	"github.com/brpaterson/linethermal/internal/variogram"
)

func TestKrigeExactnessAtStation(t *testing.T) {
	samples := []StationSample{
		{X: 0, Y: 0, Value: 20},
		{X: 1000, Y: 0, Value: 25},
		{X: 0, Y: 1000, Value: 22},
	}
	targets := []LinePoint{
		{ID: 0, X: 0, Y: 0},
		{ID: 1, X: 1000, Y: 0},
	}

	fields, err := Krige(samples, targets, variogram.Linear)
	if err != nil {
		t.Fatalf("Krige returned error: %v", err)
	}

	if math.Abs(fields[0].Mean-20) > 1e-6 {
		t.Errorf("exactness at station 0: got mean %g, want 20", fields[0].Mean)
	}
	if fields[0].Std != 0 {
		t.Errorf("exactness at station 0: got std %g, want 0", fields[0].Std)
	}
	if math.Abs(fields[1].Mean-25) > 1e-6 {
		t.Errorf("exactness at station 1: got mean %g, want 25", fields[1].Mean)
	}
}

func TestKrigeUnbiasedWeights(t *testing.T) {
	samples := []StationSample{
		{X: 0, Y: 0, Value: 10},
		{X: 500, Y: 0, Value: 10},
		{X: 0, Y: 500, Value: 10},
	}
	targets := []LinePoint{{ID: 0, X: 250, Y: 250}}

	fields, err := Krige(samples, targets, variogram.Linear)
	if err != nil {
		t.Fatalf("Krige returned error: %v", err)
	}
	if math.Abs(fields[0].Mean-10) > 1e-6 {
		t.Errorf("uniform field should krige back to the constant value, got %g", fields[0].Mean)
	}
}

func TestKrigeVarianceNonNegative(t *testing.T) {
	samples := []StationSample{
		{X: 0, Y: 0, Value: 15},
		{X: 800, Y: 200, Value: 18},
		{X: 200, Y: 900, Value: 12},
		{X: 700, Y: 700, Value: 20},
	}
	targets := []LinePoint{
		{ID: 0, X: 100, Y: 100},
		{ID: 1, X: 900, Y: 900},
		{ID: 2, X: 400, Y: 400},
	}

	fields, err := Krige(samples, targets, variogram.Spherical)
	if err != nil {
		t.Fatalf("Krige returned error: %v", err)
	}
	for i, f := range fields {
		if f.Std < 0 {
			t.Errorf("target %d: kriging std must be >= 0, got %g", i, f.Std)
		}
	}
}

func TestKrigeCoverageError(t *testing.T) {
	samples := []StationSample{{X: 0, Y: 0, Value: 10}}
	_, err := Krige(samples, []LinePoint{{ID: 0}}, variogram.Linear)
	if err == nil {
		t.Fatal("expected an error with fewer than 2 stations")
	}
	if !errors.Is(err, ErrCoverage) {
		t.Errorf("expected ErrCoverage, got %v", err)
	}
}

func TestKrigeInterpolationErrorOnDuplicateStations(t *testing.T) {
	samples := []StationSample{
		{X: 100, Y: 100, Value: 10},
		{X: 100, Y: 100, Value: 20},
	}
	_, err := Krige(samples, []LinePoint{{ID: 0, X: 500, Y: 500}}, variogram.Linear)
	if err == nil {
		t.Fatal("expected an interpolation error for duplicate station coordinates")
	}
}
