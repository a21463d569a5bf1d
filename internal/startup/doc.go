// Package startup loads configuration and writes the startup and shutdown
// log sections.
//
// # Configuration
//
// [LoadConfig] reads environment variables, validates them and prepares
// the data and upload directories:
//
//   - PORT, METRICS_PORT, METRICS_ENABLED, LOG_HEALTH_CHECKS
//   - DATA_DIR: SQLite database location (default: /data)
//   - UPLOAD_DIR: raw and transcoded video files (default: /uploads)
//   - VIEW_COOLDOWN, VIEW_RETENTION, VIEW_SWEEP_INTERVAL: Go durations (1h, 24h, 1h)
//   - VIEW_LEDGER: sqlite, redis or dynamodb (default: sqlite)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, DYNAMODB_TABLE
//   - FINGERPRINT_KEY: secret for anonymous viewer fingerprints
//   - TRUSTED_PROXIES: CIDRs allowed to set X-Forwarded-For (default: none)
//   - THUMBNAIL_STORE: fs or s3, with S3_BUCKET
//   - NATS_URL: optional event bus
//   - TRANSCODE_WAIT, TRANSCODE_WORKERS, TRANSCODE_TIMEOUT
//   - MAX_VIDEO_BYTES, MAX_THUMBNAIL_BYTES
//   - LOG_LEVEL: debug, info, warn or error
//
// Invalid durations and numbers log a warning and fall back to defaults.
// An unknown backend or a backend missing its required setting is an error.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via -ldflags and exposed via
// [GetBuildInfo].
package startup
