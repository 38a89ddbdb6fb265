package idxbench

import (
	"time"
)

// timeOperation runs fn between two high-resolution timestamps and
// returns the elapsed wall-clock duration. Timing state never escapes
// this scope.
func timeOperation(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}

// elapsedMicros converts a duration to integer microseconds, clamped at
// zero. A zero reading is a valid low-confidence measurement, not an
// error.
func elapsedMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < 0 {
		return 0
	}
	return us
}
