package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_platform_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"result"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_platform_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Video lifecycle metrics
var (
	VideosUploadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_platform_videos_uploaded_total",
			Help: "Total number of accepted video uploads",
		},
	)

	VideosDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_platform_videos_deleted_total",
			Help: "Total number of deleted videos",
		},
	)

	TranscodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_transcodes_total",
			Help: "Total number of finished transcode jobs by outcome",
		},
		[]string{"status"}, // "completed", "failed"
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_transcode_duration_seconds",
			Help:    "Duration of transcode jobs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	TranscodesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_platform_transcodes_in_flight",
			Help: "Number of transcode jobs currently running",
		},
	)

	StorageCleanupErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_storage_cleanup_errors_total",
			Help: "Best-effort file deletions that failed and were ignored",
		},
		[]string{"kind"}, // "video", "transcoded", "thumbnail"
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_platform_memory_usage_ratio",
			Help: "Heap in use as a fraction of the memory limit",
		},
	)

	PlaybackBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_platform_playback_bytes_total",
			Help: "Bytes of video sent to players",
		},
	)

	TranscodeAdmissionPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_platform_transcode_admission_paused",
			Help: "1 while new transcode jobs are held back for memory pressure",
		},
	)
)

// View accounting metrics
var (
	ViewDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_view_decisions_total",
			Help: "View registrations by decision path",
		},
		[]string{"result"}, // "counted", "fast_tier", "ledger", "error"
	)

	ViewFastTierEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_platform_view_fast_tier_entries",
			Help: "Entries currently held in the in-memory view cooldown tier",
		},
	)

	ViewFastTierEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_platform_view_fast_tier_evictions_total",
			Help: "Entries evicted from the view cooldown tier by the sweeper",
		},
	)

	ViewLedgerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_view_ledger_duration_seconds",
			Help:    "Durable view ledger operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"backend", "operation"},
	)

	ViewLedgerPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_platform_view_ledger_purged_total",
			Help: "Expired view records removed from the ledger",
		},
	)
)

// Engagement metrics
var (
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_ratings_total",
			Help: "Rating requests by subject, action and resulting state",
		},
		[]string{"subject", "action", "state"},
	)

	RepliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_platform_comment_replies_total",
			Help: "Total number of replies appended to comments",
		},
	)
)

// Event publication metrics
var (
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_events_published_total",
			Help: "Lifecycle events published by subject and status",
		},
		[]string{"subject", "status"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds by volume and operation",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_filesystem_retry_attempts_total",
			Help: "Retries triggered by stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_platform_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_platform_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)
