// Package main is the entry point of the video platform server.
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT
//  2. Configuration loading and directory checks
//  3. Database initialization (SQLite, migrations applied on open)
//  4. Component initialization:
//     - Video store on local disk, thumbnail store on disk or S3
//     - Event publisher (NATS when NATS_URL is set)
//     - Transcoder pool behind a memory admission gate
//     - View accounting: in-memory cooldown tier plus the durable ledger
//     selected by VIEW_LEDGER
//  5. Resume: videos still marked processing are queued for transcoding again
//  6. HTTP server and, when enabled, the Prometheus metrics server
//  7. Graceful shutdown on SIGINT/SIGTERM
//
// # Background Services
//
//   - Cooldown sweeper: evicts expired fast-tier entries
//   - Ledger purger: deletes expired view records (SQLite ledger only)
//   - Memory gate: samples heap usage
//   - Metrics collector: refreshes sampled gauges
//
// # Shutdown
//
// The HTTP server stops accepting requests first. Running transcode jobs get
// until the shutdown deadline to finish; jobs still running after that are
// cancelled and their videos are marked failed. Background loops, the ledger,
// the event connection and the database are closed last.
package main
