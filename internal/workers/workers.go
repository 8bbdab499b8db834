package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count for the given task characteristics.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task type:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit parameter caps the worker count; use 0 for no limit.
// The THUMBNAIL_WORKERS environment variable overrides the calculation.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("THUMBNAIL_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForDecode returns a worker count for thumbnail decoding, which mixes
// file I/O with CPU-bound image processing (1.5 per CPU).
// The limit parameter caps the maximum number of workers.
func ForDecode(limit int) int {
	return Count(1.5, limit)
}

// ForIO returns a worker count for I/O-bound tasks such as preview
// preloading (2 per CPU). The limit parameter caps the maximum.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
