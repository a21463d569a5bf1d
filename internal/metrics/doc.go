// Package metrics provides Prometheus instrumentation for the video platform.
//
// All metrics are prefixed with "video_platform_" and registered on the
// default registry through promauto, so they are exported by the metrics
// server as soon as the package is imported.
//
// # Metric Categories
//
//   - HTTP: request counts, latency and in-flight requests
//   - Database: query counts and latency per operation, transaction outcome
//   - Lifecycle: uploads, deletions, transcode outcomes and durations,
//     ignored cleanup failures
//   - Views: decision path per registration (fast tier, ledger, counted),
//     cooldown tier size and evictions, ledger latency per backend
//   - Engagement: rating transitions and replies
//   - Events: publications per subject and outcome
//   - Memory and playback: heap usage ratio, transcode admission pauses,
//     bytes streamed to players
//   - Filesystem: per-volume operation latency and stale-handle retries
//
// InitializeMetrics pre-creates the known label combinations so dashboards
// see zero values before the first event. Collector samples gauges that are
// cheaper to poll than to maintain inline.
package metrics
