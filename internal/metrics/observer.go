package metrics

import "video-platform/internal/filesystem"

// volumeObserver feeds the filesystem counters from upload and thumbnail
// volume access.
type volumeObserver struct{}

// NewFilesystemObserver returns the observer passed to filesystem.SetObserver.
func NewFilesystemObserver() filesystem.Observer {
	return volumeObserver{}
}

func (volumeObserver) ObserveOperation(volume, op string, seconds float64, retries int, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, op).Observe(seconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, op).Inc()
	}
	if retries > 0 {
		FilesystemRetryDuration.WithLabelValues(op, volume).Observe(seconds)
	}
}

func (volumeObserver) ObserveRetry(volume, op string, event filesystem.RetryEvent) {
	switch event {
	case filesystem.RetryStale:
		FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
	case filesystem.RetryScheduled:
		FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
	case filesystem.RetryRecovered:
		FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
	case filesystem.RetryExhausted:
		FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
	}
}
