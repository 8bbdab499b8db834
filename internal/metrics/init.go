package metrics

// InitializeMetrics pre-populates expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, op := range []string{"scan_batch", "list_folders"} {
		for _, status := range []string{"success", "error"} {
			ScannerOperationsTotal.WithLabelValues(op, status)
		}
		ScannerOperationDuration.WithLabelValues(op)
		ScannerItemsReturned.WithLabelValues(op)
	}

	for _, status := range []string{"success", "error", "timeout"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"hit", "miss", "error"} {
		PreviewRendersTotal.WithLabelValues(status)
	}

	for _, event := range []string{"mounted", "unmounted"} {
		DeviceEventsTotal.WithLabelValues(event)
	}
}
