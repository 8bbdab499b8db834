// Package workers provides helpers for sizing the thumbnail decode
// worker pool.
//
// Go 1.19+ sets GOMAXPROCS from container CPU limits, so the helpers
// here derive worker counts from runtime.GOMAXPROCS(0) rather than
// runtime.NumCPU(), which reports the host machine's CPU count even
// under cgroup constraints.
//
// The THUMBNAIL_WORKERS environment variable overrides every
// calculation, which is useful for tuning decode concurrency on
// machines where disk throughput, not CPU, is the bottleneck.
package workers
