package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Scanner metrics
var (
	ScannerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_scanner_operations_total",
			Help: "Total number of directory scan operations",
		},
		[]string{"operation", "status"},
	)

	ScannerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_scanner_operation_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	ScannerItemsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_scanner_items_returned",
			Help:    "Number of items returned per scan batch",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)
)

// Thumbnail generation metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_generations_total",
			Help: "Total number of thumbnail generation attempts",
		},
		[]string{"status"}, // "success", "error", "timeout"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_browser_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_batches_total",
			Help: "Total number of thumbnail batches submitted",
		},
	)

	ThumbnailBatchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_batches_superseded_total",
			Help: "Total number of thumbnail batches superseded before completion",
		},
	)

	ThumbnailItemsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_items_suppressed_total",
			Help: "Total number of thumbnail results suppressed because their batch was superseded",
		},
	)

	ThumbnailWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_thumbnail_workers",
			Help: "Number of thumbnail decode workers",
		},
	)
)

// Thumbnail cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_cache_evictions_total",
			Help: "Total number of thumbnail cache evictions",
		},
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_cache_size",
			Help: "Current number of entries in the thumbnail cache",
		},
	)
)

// Preview metrics
var (
	PreviewRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_preview_renders_total",
			Help: "Total number of full-image preview renders",
		},
		[]string{"status"}, // "hit", "miss", "error"
	)

	PreviewRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_browser_preview_render_duration_seconds",
			Help:    "Full-image preview render duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_fs_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_fs_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_fs_stale_errors_total",
			Help: "Total number of stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_fs_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Device monitor metrics
var (
	DeviceEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_device_events_total",
			Help: "Total number of removable-volume change events",
		},
		[]string{"event"}, // "mounted", "unmounted"
	)
)
