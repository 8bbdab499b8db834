// Package metrics defines the Prometheus metrics exported by the image
// browser: HTTP request counters, directory scan timings, thumbnail
// generation outcomes, cache hit rates, and volume-change events.
//
// Metrics are registered via promauto at package initialization and
// served from the metrics port configured at startup.
package metrics
