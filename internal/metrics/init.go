package metrics

// InitializeMetrics pre-populates expected label combinations so that every
// metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, result := range []string{"optimized", "copied", "fallback"} {
		OptimizeTotal.WithLabelValues(result)
	}

	for _, status := range []string{"success", "fallback", "error"} {
		UploadsCompleted.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "get_photo", "upsert_photo",
		"delete_photo", "rename_photo", "prune_photos"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
