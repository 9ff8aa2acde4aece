package linethermal

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Wrap one of these with fmt.Errorf("...: %w", ...)
// so callers can classify a failure with errors.Is regardless of the
// surrounding message.
var (
	// ErrConfig marks missing or out-of-range configuration or conductor
	// parameters. Fatal: aborts the run.
	ErrConfig = errors.New("config error")

	// ErrDataShape marks inconsistent station schemas or a route missing
	// required columns. Fatal: aborts the run.
	ErrDataShape = errors.New("data shape error")

	// ErrCoverage marks fewer than two valid stations for a requested
	// hour. Recovered by dropping that hour.
	ErrCoverage = errors.New("coverage error")

	// ErrInterpolation marks a singular kriging system or a non-finite
	// solution for an hour. Recovered by dropping that hour.
	ErrInterpolation = errors.New("interpolation error")

	// ErrSolver marks a thermal solver failure to bracket for one draw.
	// Recovered by discarding the draw.
	ErrSolver = errors.New("solver error")

	// ErrNumeric marks a non-finite sample value propagating out of a
	// draw. Recovered by discarding the draw.
	ErrNumeric = errors.New("numeric error")

	// ErrCancelled marks an orchestrator run stopped by cooperative
	// cancellation. No partial hour is emitted.
	ErrCancelled = errors.New("cancellation signal")
)

// wrap produces an error that errors.Is(err, kind) matches while keeping
// a caller-supplied message for logs and diagnostics.
func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}
