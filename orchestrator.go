package linethermal

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/brpaterson/linethermal/internal/rng"
	"github.com/brpaterson/linethermal/internal/variogram"
)

// RunConfig is the configuration enumeration of spec.md §6, passed
// explicitly at construction rather than held as module-level state.
type RunConfig struct {
	DiscretizationStepM  float64 // default 1000
	MCIterations         int     // default 10000
	ConfidencePercentile float64 // default 90
	VariogramModel       variogram.Kind
	RiskBands            []RiskBand
	RNGMasterSeed        uint64
	MaxConcurrency       int // 0 means runtime.GOMAXPROCS(0)
}

// DefaultRunConfig returns the configuration defaults named in spec.md
// §6.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		DiscretizationStepM:  1000,
		MCIterations:         10000,
		ConfidencePercentile: 90,
		VariogramModel:       variogram.Linear,
		RiskBands:            DefaultRiskBands(),
		RNGMasterSeed:        0,
	}
}

// Run walks the Cartesian product of (hour, point) per spec.md §4.6:
// kriging is computed once per hour and shared across all points of
// that hour, amortizing the variogram fit and matrix factorization.
// Results are returned in (timestamp, progressive) ascending order
// regardless of goroutine completion order. A recoverable error drops
// the affected hour or draw and is tallied into the returned
// Diagnostics; a ConfigError or DataShapeError aborts immediately.
func Run(ctx context.Context, conductor ConductorParameters, points []LinePoint, stations []Station, current CurrentSchedule, cfg RunConfig) ([]HourlyResult, Diagnostics, error) {
	var diag Diagnostics

	if err := conductor.Validate(); err != nil {
		return nil, diag, err
	}
	if len(points) == 0 {
		return nil, diag, wrap(ErrDataShape, "route discretization produced no points")
	}
	if len(stations) == 0 {
		return nil, diag, wrap(ErrDataShape, "no stations supplied")
	}

	model, err := NewThermalModel(conductor)
	if err != nil {
		return nil, diag, err
	}

	hours := commonValidHours(stations)
	if len(hours) == 0 {
		return nil, diag, wrap(ErrDataShape, "stations share no common hourly time index")
	}
	for _, ts := range hours {
		if _, ok := current.At(ts); !ok {
			return nil, diag, wrap(ErrConfig, "current schedule has no entry for hour %s", ts)
		}
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = runtime.GOMAXPROCS(0)
	}

	results := make([]HourlyResult, 0, len(hours)*len(points))

	for _, ts := range hours {
		if ctx.Err() != nil {
			diag.Cancelled = true
			return orderResults(results), diag, wrap(ErrCancelled, "run cancelled before hour %s", ts)
		}

		moments, ok, err := krigeHour(stations, points, ts, cfg.VariogramModel)
		if err != nil {
			switch {
			case errors.Is(err, ErrCoverage):
				diag.HoursDroppedCoverage++
				continue
			case errors.Is(err, ErrInterpolation):
				diag.HoursDroppedInterpolation++
				continue
			default:
				return orderResults(results), diag, err
			}
		}
		if !ok {
			diag.HoursDroppedCoverage++
			continue
		}

		amps, _ := current.At(ts)

		hourResults, cancelled := runPointsForHour(ctx, model, points, moments, ts, amps, cfg, &diag)
		if cancelled {
			diag.Cancelled = true
			return orderResults(results), diag, wrap(ErrCancelled, "run cancelled during hour %s", ts)
		}
		results = append(results, hourResults...)
	}

	return orderResults(results), diag, nil
}

// commonValidHours intersects every station's observation timestamps,
// per spec.md §3: an hour is globally discarded unless every station
// reports it, returned ascending.
func commonValidHours(stations []Station) []time.Time {
	if len(stations) == 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	for _, s := range stations {
		for ts := range s.Observations {
			counts[ts]++
		}
	}
	var hours []time.Time
	for ts, n := range counts {
		if n == len(stations) {
			hours = append(hours, ts)
		}
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })
	return hours
}

// krigeHour interpolates all four meteorological variables at every
// point for one hour. Each variable gets its own Krige call, and so its
// own variogram fit and LU factorization, which is then shared across
// every point of the hour; nothing is shared between variables.
func krigeHour(stations []Station, points []LinePoint, ts time.Time, kind variogram.Kind) ([]MeteorologicalMoments, bool, error) {
	var taSamples, qsSamples, uSamples, vSamples []StationSample
	for _, s := range stations {
		obs, ok := s.Observations[ts]
		if !ok {
			continue
		}
		taSamples = append(taSamples, StationSample{X: s.X, Y: s.Y, Value: obs.TaC})
		qsSamples = append(qsSamples, StationSample{X: s.X, Y: s.Y, Value: obs.QsWm2})
		uSamples = append(uSamples, StationSample{X: s.X, Y: s.Y, Value: obs.U})
		vSamples = append(vSamples, StationSample{X: s.X, Y: s.Y, Value: obs.V})
	}
	if len(taSamples) < 2 {
		return nil, false, nil
	}

	taFields, err := Krige(taSamples, points, kind)
	if err != nil {
		return nil, false, err
	}
	qsFields, err := Krige(qsSamples, points, kind)
	if err != nil {
		return nil, false, err
	}
	uFields, err := Krige(uSamples, points, kind)
	if err != nil {
		return nil, false, err
	}
	vFields, err := Krige(vSamples, points, kind)
	if err != nil {
		return nil, false, err
	}

	moments := make([]MeteorologicalMoments, len(points))
	for i := range points {
		moments[i] = MeteorologicalMoments{
			Ta: taFields[i],
			Qs: qsFields[i],
			U:  uFields[i],
			V:  vFields[i],
		}
	}
	return moments, true, nil
}

// runPointsForHour fans out Monte Carlo propagation and risk analysis
// across points for one hour using a bounded goroutine pool; shared
// state (model, moments, config) is read-only, per-task state (RNG
// seed, sample buffer) is private to each goroutine, matching spec.md
// §5's concurrency model.
func runPointsForHour(ctx context.Context, model *ThermalModel, points []LinePoint, moments []MeteorologicalMoments, ts time.Time, amps float64, cfg RunConfig, diag *Diagnostics) ([]HourlyResult, bool) {
	if ctx.Err() != nil {
		return nil, true
	}

	out := make([]HourlyResult, len(points))
	valid := make([]bool, len(points))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxInt(1, cfg.MaxConcurrency))

	for i, pt := range points {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pt LinePoint) {
			defer wg.Done()
			defer func() { <-sem }()

			seed := rng.TaskSeed(cfg.RNGMasterSeed, ts.Unix(), pt.ID)
			mc := RunMonteCarlo(model, MonteCarloRequest{
				Moments:    moments[i],
				AzimuthDeg: pt.AzimuthDeg,
				CurrentA:   amps,
				Iterations: cfg.MCIterations,
				Seed:       seed,
			})

			mu.Lock()
			diag.DrawsDiscardedSolver += mc.DiscardedSolver
			diag.DrawsDiscardedNumeric += mc.DiscardedNumeric
			mu.Unlock()

			if len(mc.Sample.Values) == 0 {
				return
			}

			risk, err := AnalyzeRisk(mc.Sample, model.Conductor.MaxTempC, cfg.ConfidencePercentile, cfg.RiskBands)
			if err != nil {
				return
			}

			degraded := mc.Sample.Degraded()
			if degraded {
				mu.Lock()
				diag.ResultsDegraded++
				mu.Unlock()
			}

			out[i] = HourlyResult{
				Timestamp:          ts,
				PointID:            pt.ID,
				ProgressiveM:       pt.ProgressiveM,
				TcMeanC:            risk.MeanC,
				TcP90C:             risk.P90C,
				TcP95C:             risk.P95C,
				Risk:               risk.Risk,
				RiskClass:          risk.Class,
				Recommendation:     risk.Recommendation,
				TaMeanC:            mc.TaMeanC,
				QsMeanWm2:          mc.QsMeanWm2,
				WsMeanMS:           mc.WsMeanMS,
				AttackAngleMeanDeg: mc.AttackAngleMeanDeg,
				CurrentA:           amps,
				IterationsUsed:     len(mc.Sample.Values),
				Degraded:           degraded,
			}
			valid[i] = true
		}(i, pt)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, true
	}

	results := make([]HourlyResult, 0, len(points))
	for i, ok := range valid {
		if ok {
			results = append(results, out[i])
		}
	}
	return results, false
}

// orderResults re-sorts the accumulated rows by (timestamp, progressive)
// ascending, the ordering guarantee of spec.md §5, independent of the
// concurrent completion order within and across hours.
func orderResults(results []HourlyResult) []HourlyResult {
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].Timestamp.Equal(results[j].Timestamp) {
			return results[i].Timestamp.Before(results[j].Timestamp)
		}
		return results[i].ProgressiveM < results[j].ProgressiveM
	})
	return results
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
