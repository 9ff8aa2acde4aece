package linethermal

import "math"

// grs80 is the reference ellipsoid backing both SIRGAS 2000 (EPSG:4674)
// and Brazil Polyconic (EPSG:5880); both systems share the GRS80 datum,
// so no datum shift is needed, only a map projection.
const (
	grs80SemiMajorM  = 6378137.0
	grs80Flattening  = 1 / 298.257222101
	polyconicLon0Deg = -54.0 // central meridian of Brazil Polyconic
	polyconicLat0Deg = 0.0
	polyconicFalseE  = 5000000.0
	polyconicFalseN  = 10000000.0
)

// Projector converts geographic coordinates to the projected frame used
// by kriging. The core depends only on this narrow seam so a real CRS
// library can be substituted without touching callers.
type Projector interface {
	Project(latDeg, lonDeg float64) (x, y float64)
}

// BrazilPolyconic implements the forward American Polyconic projection
// for SIRGAS 2000 (EPSG:4674) geographic coordinates onto Brazil
// Polyconic (EPSG:5880), per the published parameters (GRS80 ellipsoid,
// central meridian -54°, false easting 5,000,000 m, false northing
// 10,000,000 m). Kriging and route discretization consume its output
// directly; it performs no datum shift since both CRSs share GRS80.
type BrazilPolyconic struct{}

// Project implements Projector.
func (BrazilPolyconic) Project(latDeg, lonDeg float64) (x, y float64) {
	e2 := grs80Flattening * (2 - grs80Flattening)
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180
	lambda0 := polyconicLon0Deg * math.Pi / 180

	m := meridianArcLength(phi, e2)
	m0 := 0.0 // meridian arc at lat0 = 0 is 0 by construction

	sinPhi := math.Sin(phi)
	if math.Abs(sinPhi) < 1e-12 {
		x = grs80SemiMajorM*(lambda-lambda0) + polyconicFalseE
		y = -m0 + polyconicFalseN
		return x, y
	}

	n := grs80SemiMajorM / math.Sqrt(1-e2*sinPhi*sinPhi)
	e := (lambda - lambda0) * sinPhi
	cotPhi := math.Cos(phi) / sinPhi

	x = n*cotPhi*math.Sin(e) + polyconicFalseE
	y = m - m0 + n*cotPhi*(1-math.Cos(e)) + polyconicFalseN
	return x, y
}

// meridianArcLength computes the distance along the meridian from the
// equator to latitude phi (radians), via the standard truncated series
// in eccentricity squared e2.
func meridianArcLength(phi, e2 float64) float64 {
	a := grs80SemiMajorM
	e4 := e2 * e2
	e6 := e4 * e2

	c0 := 1 - e2/4 - 3*e4/64 - 5*e6/256
	c2 := 3*e2/8 + 3*e4/32 + 45*e6/1024
	c4 := 15*e4/256 + 45*e6/1024
	c6 := 35 * e6 / 3072

	return a * (c0*phi - c2*math.Sin(2*phi) + c4*math.Sin(4*phi) - c6*math.Sin(6*phi))
}

// RouteVertex is a raw route control point prior to discretization:
// known progressive and azimuth, plus geographic coordinates to be
// projected by the supplied Projector.
type RouteVertex struct {
	ProgressiveM float64
	AzimuthDeg   float64
	LatDeg       float64
	LonDeg       float64
}

// DiscretizeRoute walks the polyline of vertices (ordered by ascending
// progressive) and emits LinePoints spaced at stepM along the chord
// between adjacent vertices, projecting each with proj. The first and
// last vertices are always emitted; the final segment of each leg may be
// shorter than stepM since the step is a target, not an exact divisor.
// Azimuth is piecewise constant, taken from the vertex that opens the
// segment containing the emitted point.
func DiscretizeRoute(vertices []RouteVertex, stepM float64, proj Projector) ([]LinePoint, error) {
	if len(vertices) < 2 {
		return nil, wrap(ErrDataShape, "route needs at least two vertices, got %d", len(vertices))
	}
	if stepM <= 0 {
		return nil, wrap(ErrConfig, "discretization step must be positive, got %g", stepM)
	}

	type projected struct {
		x, y float64
	}
	proj2 := make([]projected, len(vertices))
	for i, v := range vertices {
		x, y := proj.Project(v.LatDeg, v.LonDeg)
		proj2[i] = projected{x, y}
	}

	var points []LinePoint
	id := 0
	for i := 0; i < len(vertices)-1; i++ {
		start, end := vertices[i], vertices[i+1]
		p0, p1 := proj2[i], proj2[i+1]

		segLen := math.Hypot(p1.x-p0.x, p1.y-p0.y)
		if segLen <= 0 {
			continue
		}

		progSpan := end.ProgressiveM - start.ProgressiveM
		nSteps := int(math.Ceil(segLen / stepM))

		for s := 0; s <= nSteps; s++ {
			frac := float64(s) * stepM / segLen
			if frac > 1 {
				frac = 1
			}
			x := p0.x + frac*(p1.x-p0.x)
			y := p0.y + frac*(p1.y-p0.y)
			prog := start.ProgressiveM + frac*progSpan

			if i > 0 && s == 0 {
				// Already emitted as the previous segment's endpoint.
				continue
			}

			points = append(points, LinePoint{
				ID:           id,
				ProgressiveM: prog,
				X:            x,
				Y:            y,
				AzimuthDeg:   normalizeDeg(start.AzimuthDeg),
			})
			id++
		}
	}

	last := vertices[len(vertices)-1]
	lastP := proj2[len(proj2)-1]
	if len(points) == 0 || points[len(points)-1].ProgressiveM < last.ProgressiveM {
		points = append(points, LinePoint{
			ID:           id,
			ProgressiveM: last.ProgressiveM,
			X:            lastP.x,
			Y:            lastP.y,
			AzimuthDeg:   normalizeDeg(vertices[len(vertices)-2].AzimuthDeg),
		})
	}

	return points, nil
}
