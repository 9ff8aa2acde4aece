// Package rng derives deterministic per-task seeds for the Monte Carlo
// propagator so that parallel execution order never affects results.
package rng

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// TaskSeed derives a stable seed for one (point, hour) task from the run's
// master seed, the hour's timestamp (unix seconds) and the point's index
// along the route. Two calls with the same inputs always return the same
// value, regardless of goroutine scheduling.
func TaskSeed(masterSeed uint64, timestampUnix int64, pointID int) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], masterSeed)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(timestampUnix))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(pointID))
	return xxhash.Sum64(buf[:])
}
