package linethermal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testStations(hours []time.Time) []Station {
	mk := func(id string, x, y float64) Station {
		obs := make(map[time.Time]HourlyObservation, len(hours))
		for _, ts := range hours {
			obs[ts] = HourlyObservation{Timestamp: ts, TaC: 28, QsWm2: 700, U: 3, V: 1}
		}
		return Station{ID: id, X: x, Y: y, Observations: obs}
	}
	return []Station{
		mk("A", 0, 0),
		mk("B", 2000, 0),
		mk("C", 0, 2000),
	}
}

func testPoints() []LinePoint {
	return []LinePoint{
		{ID: 0, ProgressiveM: 0, X: 500, Y: 500, AzimuthDeg: 45},
		{ID: 1, ProgressiveM: 1000, X: 1000, Y: 1000, AzimuthDeg: 45},
	}
}

func testRunConfig() RunConfig {
	cfg := DefaultRunConfig()
	cfg.MCIterations = 200
	cfg.MaxConcurrency = 4
	return cfg
}

func TestRunEndToEndProducesOrderedResults(t *testing.T) {
	hours := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	stations := testStations(hours)
	points := testPoints()
	current := ConstantCurrent(400)

	results, diag, err := Run(context.Background(), testConductor(), points, stations, current, testRunConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diag.Cancelled {
		t.Error("run should not report cancellation")
	}
	if len(results) != len(hours)*len(points) {
		t.Fatalf("expected %d results, got %d", len(hours)*len(points), len(results))
	}

	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		if cur.Timestamp.Before(prev.Timestamp) {
			t.Fatalf("results must be sorted by timestamp ascending: row %d out of order", i)
		}
		if cur.Timestamp.Equal(prev.Timestamp) && cur.ProgressiveM < prev.ProgressiveM {
			t.Fatalf("within an hour, results must be sorted by progressive ascending: row %d out of order", i)
		}
	}
}

func TestRunDropsHourWithInsufficientCoverage(t *testing.T) {
	fullHour := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	partialHour := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	stations := testStations([]time.Time{fullHour})
	// Station C never reports the partial hour, but A and B do, so
	// commonValidHours excludes it entirely before krigeHour ever runs.
	stations[0].Observations[partialHour] = HourlyObservation{Timestamp: partialHour, TaC: 28, QsWm2: 700, U: 3, V: 1}
	stations[1].Observations[partialHour] = HourlyObservation{Timestamp: partialHour, TaC: 28, QsWm2: 700, U: 3, V: 1}

	current := ConstantCurrent(400)
	results, diag, err := Run(context.Background(), testConductor(), testPoints(), stations, current, testRunConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diag.HoursDroppedCoverage != 0 {
		t.Errorf("expected the incomplete hour to be excluded up front by commonValidHours, not counted as a coverage drop, got %d", diag.HoursDroppedCoverage)
	}
	if len(results) != len(testPoints()) {
		t.Fatalf("expected only the fully covered hour to produce results, got %d rows", len(results))
	}
}

func TestRunRejectsMissingCurrentScheduleEntry(t *testing.T) {
	hour := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stations := testStations([]time.Time{hour})
	current := CurrentSchedule{time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC): 400}

	_, _, err := Run(context.Background(), testConductor(), testPoints(), stations, current, testRunConfig())
	if err == nil {
		t.Fatal("expected an error when the current schedule has no entry for a required hour")
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestRunRejectsInvalidConductor(t *testing.T) {
	hour := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stations := testStations([]time.Time{hour})
	c := testConductor()
	c.DiameterM = -1

	_, _, err := Run(context.Background(), c, testPoints(), stations, ConstantCurrent(400), testRunConfig())
	if err == nil {
		t.Fatal("expected an error for an invalid conductor")
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestRunRejectsEmptyPoints(t *testing.T) {
	hour := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stations := testStations([]time.Time{hour})
	_, _, err := Run(context.Background(), testConductor(), nil, stations, ConstantCurrent(400), testRunConfig())
	if err == nil {
		t.Fatal("expected an error for an empty point set")
	}
	if !errors.Is(err, ErrDataShape) {
		t.Errorf("expected ErrDataShape, got %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	hours := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	stations := testStations(hours)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, diag, err := Run(ctx, testConductor(), testPoints(), stations, ConstantCurrent(400), testRunConfig())
	if err == nil {
		t.Fatal("expected a cancellation error for an already-cancelled context")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if !diag.Cancelled {
		t.Error("Diagnostics.Cancelled should be true")
	}
}
