package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, result := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(result)
	}

	for _, status := range []string{"completed", "failed"} {
		TranscodesTotal.WithLabelValues(status)
		TranscodeDuration.WithLabelValues(status)
	}

	for _, kind := range []string{"video", "transcoded", "thumbnail"} {
		StorageCleanupErrors.WithLabelValues(kind)
	}

	for _, result := range []string{"counted", "fast_tier", "ledger", "error"} {
		ViewDecisionsTotal.WithLabelValues(result)
	}

	for _, backend := range []string{"sqlite", "redis", "dynamodb"} {
		for _, op := range []string{"seen", "record", "purge"} {
			ViewLedgerDuration.WithLabelValues(backend, op)
		}
	}

	for _, subject := range []string{"video", "comment"} {
		for _, action := range []string{"like", "dislike"} {
			for _, state := range []string{"liked", "disliked", "neutral"} {
				RatingsTotal.WithLabelValues(subject, action, state)
			}
		}
	}

	volumes := []string{"uploads", "data", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "write", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
