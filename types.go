// Package linethermal computes hourly thermal risk of an overhead
// transmission-line conductor from sparse weather-station observations.
// It composes four subsystems — ordinary kriging, a CIGRE TB-601
// steady-state thermal solver, a Monte Carlo uncertainty propagator, and
// a risk quantifier — behind a single orchestrator entry point. The
// package is pure: it performs no I/O and holds no mutable process-wide
// state; every call takes its inputs by value or immutable reference.
package linethermal

import (
	"math"
	"time"
)

// ConductorParameters describes the physical conductor being rated.
// Immutable after construction.
type ConductorParameters struct {
	DiameterM    float64 // conductor diameter, metres, > 0
	RAC25        float64 // AC resistance at 25 °C, Ω/m, > 0
	RAC75        float64 // AC resistance at 75 °C, Ω/m, >= RAC25
	Emissivity   float64 // ε ∈ (0, 1]
	Absorptivity float64 // α ∈ (0, 1]
	MaxTempC     float64 // T_max, °C, the design temperature limit
}

// Validate checks the invariants in the data model: positive physical
// quantities, coefficients within (0,1], and a resistance curve that
// does not decrease with temperature.
func (c ConductorParameters) Validate() error {
	switch {
	case c.DiameterM <= 0:
		return wrap(ErrConfig, "conductor diameter must be positive, got %g", c.DiameterM)
	case c.RAC25 <= 0:
		return wrap(ErrConfig, "R_ac(25) must be positive, got %g", c.RAC25)
	case c.RAC75 <= 0:
		return wrap(ErrConfig, "R_ac(75) must be positive, got %g", c.RAC75)
	case c.RAC75 < c.RAC25:
		return wrap(ErrConfig, "R_ac(75)=%g must be >= R_ac(25)=%g", c.RAC75, c.RAC25)
	case c.Emissivity <= 0 || c.Emissivity > 1:
		return wrap(ErrConfig, "emissivity must be in (0,1], got %g", c.Emissivity)
	case c.Absorptivity <= 0 || c.Absorptivity > 1:
		return wrap(ErrConfig, "absorptivity must be in (0,1], got %g", c.Absorptivity)
	}
	return nil
}

// ResistanceAt linearly interpolates (or extrapolates, with the same
// slope) the AC resistance at temperature tC using the two calibration
// points RAC25/RAC75.
func (c ConductorParameters) ResistanceAt(tC float64) float64 {
	return c.RAC25 + (c.RAC75-c.RAC25)*(tC-25)/50
}

// LinePoint is one discretized point along the line route, already
// projected into the target coordinate reference system.
type LinePoint struct {
	ID          int
	ProgressiveM float64 // arc length from the route origin, metres, monotonic
	X, Y        float64  // projected coordinates, metres
	AzimuthDeg  float64  // conductor axis bearing, [0, 360)
}

// Station is a fixed weather station with projected coordinates and an
// hourly observation series keyed by timestamp.
type Station struct {
	ID           string
	Lat, Lon     float64 // SIRGAS 2000 geographic coordinates
	X, Y         float64 // projected coordinates, metres
	Observations map[time.Time]HourlyObservation
}

// HourlyObservation is one station's ambient state at one hour.
// Either complete for all stations at that hour, or the orchestrator
// discards the hour entirely (§CoverageError).
type HourlyObservation struct {
	Timestamp time.Time
	TaC       float64 // ambient air temperature, °C
	QsWm2     float64 // horizontal global irradiance, W/m²
	U, V      float64 // wind components, m/s
}

// WindSpeedDir recomposes the scalar wind speed (m/s) and meteorological
// wind-from azimuth (degrees, [0,360)) from the orthogonal components.
func WindSpeedDir(u, v float64) (speedMS, dirDeg float64) {
	speedMS = math.Hypot(u, v)
	dirDeg = normalizeDeg(math.Atan2(u, v) * 180 / math.Pi)
	return speedMS, dirDeg
}

// normalizeDeg folds an angle in degrees into [0, 360).
func normalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// InterpolatedField is the kriging output for one meteorological
// variable at one line point and hour: the interpolated mean and the
// estimation standard deviation (sqrt of the kriging variance).
type InterpolatedField struct {
	Mean float64
	Std  float64 // >= 0
}

// CurrentSchedule maps an hourly timestamp to the conductor current in
// amperes. A single-entry schedule under a zero time.Time key is
// interpreted by the orchestrator as a constant-current shortcut.
type CurrentSchedule map[time.Time]float64

// ConstantCurrent returns a CurrentSchedule that always resolves to amps
// regardless of timestamp.
func ConstantCurrent(amps float64) CurrentSchedule {
	return CurrentSchedule{time.Time{}: amps}
}

// At resolves the current for a timestamp, falling back to the
// constant-current shortcut (the zero time.Time key) if present.
func (cs CurrentSchedule) At(ts time.Time) (float64, bool) {
	if amps, ok := cs[ts]; ok {
		return amps, true
	}
	amps, ok := cs[time.Time{}]
	return amps, ok
}

// TemperatureSample holds the surviving conductor-temperature draws for
// one (point, hour) Monte Carlo batch, plus the discard count needed to
// evaluate the degradation threshold.
type TemperatureSample struct {
	Values        []float64
	Requested     int // N, the configured iteration count
	Discarded     int // draws dropped to SolverError/NumericError
}

// DiscardFraction is the fraction of requested draws that were dropped.
func (s TemperatureSample) DiscardFraction() float64 {
	if s.Requested == 0 {
		return 0
	}
	return float64(s.Discarded) / float64(s.Requested)
}

// Degraded reports whether the discard fraction has reached the 1%
// threshold for Monte Carlo propagation (1% or more counts as degraded).
func (s TemperatureSample) Degraded() bool {
	return s.DiscardFraction() >= 0.01
}

// RiskClass is a qualitative thermal-risk label.
type RiskClass string

const (
	RiskLow      RiskClass = "Low"
	RiskModerate RiskClass = "Moderate"
	RiskHigh     RiskClass = "High"
	RiskCritical RiskClass = "Critical"
)

// RiskBand is one entry of the configured classification table: a risk
// probability at or above Threshold (and below the next band's
// threshold) maps to Class.
type RiskBand struct {
	Threshold   float64 // risk probability, [0,1)
	Class       RiskClass
	Recommendation string
}

// HourlyResult is one row of the output table: the decision quantities
// derived from a (point, hour) Monte Carlo batch, plus the interpolated
// ambient means that produced it.
type HourlyResult struct {
	Timestamp       time.Time
	PointID         int
	ProgressiveM    float64
	TcMeanC         float64
	TcP90C          float64
	TcP95C          float64
	Risk            float64
	RiskClass       RiskClass
	Recommendation  string
	TaMeanC         float64
	QsMeanWm2       float64
	WsMeanMS        float64
	AttackAngleMeanDeg float64
	CurrentA        float64
	IterationsUsed  int
	Degraded        bool

	// AmpacityA and LifeReduction are never set by Run; they stay nil
	// unless a caller fills them (e.g. from InvertAmpacity or
	// LifeReduction). nil means "not computed", not "zero result".
	AmpacityA     *float64
	LifeReduction *float64
}

// Diagnostics accumulates counts of recovered errors across an
// orchestrator run, surfaced alongside the result table per the error
// handling design's propagation policy.
type Diagnostics struct {
	HoursDroppedCoverage     int
	HoursDroppedInterpolation int
	DrawsDiscardedSolver     int
	DrawsDiscardedNumeric    int
	ResultsDegraded          int
	Cancelled                bool
}

// NormalityDiagnostic is a quick skewness/kurtosis based check on a
// temperature sample, surfaced only for diagnostic purposes — it never
// influences the main decision quantities.
type NormalityDiagnostic struct {
	Skewness float64
	Kurtosis float64
	// ApproximatelyNormal is a coarse heuristic: |skew| and |excess
	// kurtosis| both under a fixed tolerance. Not a substitute for a
	// real normality test.
	ApproximatelyNormal bool
}
