// Package database provides SQLite storage for the video platform.
//
// It handles storage and retrieval of:
//   - Videos and their processing status
//   - Comments and their append-only reply threads
//   - Like/dislike membership for videos and comments, with denormalized counters
//   - The durable view ledger used for at-most-once view counting
//
// The database uses WAL mode for concurrent readers. Every read-modify-write
// runs in a single IMMEDIATE transaction so that a membership row and the
// counter derived from it always change together. Lock contention that
// outlasts the busy timeout is reported as apperr.ErrConflict.
//
// Timestamps are stored as Unix milliseconds.
package database
