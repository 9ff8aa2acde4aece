package linethermal

import (
	"math"
	"testing"

	"github.com/brpaterson/linethermal/internal/variogram"
)

func TestBrazilPolyconicOriginMeridian(t *testing.T) {
	proj := BrazilPolyconic{}
	x, y := proj.Project(0, -54)
	if math.Abs(x-polyconicFalseE) > 1e-6 {
		t.Errorf("on the central meridian at the equator, x should equal the false easting %g, got %g", polyconicFalseE, x)
	}
	if math.Abs(y-polyconicFalseN) > 1e-6 {
		t.Errorf("on the central meridian at the equator, y should equal the false northing %g, got %g", polyconicFalseN, y)
	}
}

func TestBrazilPolyconicEastWestSymmetry(t *testing.T) {
	proj := BrazilPolyconic{}
	xEast, _ := proj.Project(-15, -50)
	xWest, _ := proj.Project(-15, -58)
	if xEast <= polyconicFalseE {
		t.Errorf("a point east of the central meridian should have x greater than the false easting, got %g", xEast)
	}
	if xWest >= polyconicFalseE {
		t.Errorf("a point west of the central meridian should have x less than the false easting, got %g", xWest)
	}
}

func TestBrazilPolyconicNorthSouthOrdering(t *testing.T) {
	proj := BrazilPolyconic{}
	_, ySouth := proj.Project(-20, -54)
	_, yNorth := proj.Project(-10, -54)
	if yNorth <= ySouth {
		t.Errorf("a more northern latitude should project to a larger y on the central meridian, got north=%g south=%g", yNorth, ySouth)
	}
}

func TestDiscretizeRouteEndpointsPreserved(t *testing.T) {
	vertices := []RouteVertex{
		{ProgressiveM: 0, AzimuthDeg: 90, LatDeg: -15, LonDeg: -54},
		{ProgressiveM: 5000, AzimuthDeg: 90, LatDeg: -15, LonDeg: -53.95},
	}
	points, err := DiscretizeRoute(vertices, 1000, BrazilPolyconic{})
	if err != nil {
		t.Fatalf("DiscretizeRoute: %v", err)
	}
	if len(points) < 2 {
		t.Fatalf("expected at least the two endpoints, got %d points", len(points))
	}
	if points[0].ProgressiveM != 0 {
		t.Errorf("first point should be at the route origin, got %g", points[0].ProgressiveM)
	}
	last := points[len(points)-1]
	if math.Abs(last.ProgressiveM-5000) > 1e-6 {
		t.Errorf("last point should be at the route's final progressive, got %g", last.ProgressiveM)
	}
}

func TestDiscretizeRouteMonotonicProgressive(t *testing.T) {
	vertices := []RouteVertex{
		{ProgressiveM: 0, AzimuthDeg: 0, LatDeg: -10, LonDeg: -54},
		{ProgressiveM: 3000, AzimuthDeg: 45, LatDeg: -10.02, LonDeg: -53.98},
		{ProgressiveM: 7000, AzimuthDeg: 90, LatDeg: -10.02, LonDeg: -53.9},
	}
	points, err := DiscretizeRoute(vertices, 500, BrazilPolyconic{})
	if err != nil {
		t.Fatalf("DiscretizeRoute: %v", err)
	}
	for i := 1; i < len(points); i++ {
		if points[i].ProgressiveM < points[i-1].ProgressiveM {
			t.Fatalf("progressive must be non-decreasing: point %d has %g, previous %g", i, points[i].ProgressiveM, points[i-1].ProgressiveM)
		}
		if points[i].ID != points[i-1].ID+1 {
			t.Errorf("point IDs must be sequential: got %d after %d", points[i].ID, points[i-1].ID)
		}
	}
}

func TestDiscretizeRouteRejectsTooFewVertices(t *testing.T) {
	_, err := DiscretizeRoute([]RouteVertex{{ProgressiveM: 0}}, 100, BrazilPolyconic{})
	if err == nil {
		t.Fatal("expected an error for a route with fewer than two vertices")
	}
}

func TestDiscretizeRouteRejectsNonPositiveStep(t *testing.T) {
	vertices := []RouteVertex{
		{ProgressiveM: 0, LatDeg: -10, LonDeg: -54},
		{ProgressiveM: 1000, LatDeg: -10, LonDeg: -53.99},
	}
	if _, err := DiscretizeRoute(vertices, 0, BrazilPolyconic{}); err == nil {
		t.Fatal("expected an error for a non-positive discretization step")
	}
}

func TestKrigeAtStationAndMidpointScenario(t *testing.T) {
	proj := BrazilPolyconic{}
	x1, y1 := proj.Project(-15.0, -54.0)
	x2, y2 := proj.Project(-15.0, -53.9)

	samples := []StationSample{
		{X: x1, Y: y1, Value: 22},
		{X: x2, Y: y2, Value: 26},
	}

	atStation := LinePoint{ID: 0, X: x1, Y: y1}
	midpoint := LinePoint{ID: 1, X: (x1 + x2) / 2, Y: (y1 + y2) / 2}

	fields, err := Krige(samples, []LinePoint{atStation, midpoint}, variogram.Linear)
	if err != nil {
		t.Fatalf("Krige: %v", err)
	}
	if math.Abs(fields[0].Mean-22) > 1e-6 {
		t.Errorf("kriging at a station location should reproduce its observed value, got %g", fields[0].Mean)
	}
	if fields[1].Mean <= 22 || fields[1].Mean >= 26 {
		t.Errorf("kriging at the midpoint between two stations should fall strictly between their values, got %g", fields[1].Mean)
	}
}
