/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Uploads and transcoded assets usually live on a network volume. These helpers wrap
os.Stat, os.Remove and atomic file writes with retry logic for ESTALE (errno 116),
which appears transiently when the server side of an NFS mount changes.

# Usage

	info, err := filesystem.StatWithRetry("/uploads/videos/abc.mp4", filesystem.DefaultRetryConfig())

	n, err := filesystem.WriteFileWithRetry(path, body, filesystem.DefaultRetryConfig())

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms. Only ESTALE triggers
retries; every other error is returned immediately.

# Metrics

Operations report to the package-level Observer (set with SetObserver) using a volume
label resolved by longest-prefix match on configured mount points. With no observer
set, recording is skipped, which keeps tests free of Prometheus state.
*/
package filesystem
