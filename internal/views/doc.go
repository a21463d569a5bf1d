// Package views implements at-most-once view counting per viewer and window.
//
// Two tiers decide whether a view counts:
//
//   - FastTier: an in-memory, sharded map of last-seen times with a short
//     cooldown (1h by default), swept periodically. It is advisory only.
//   - Ledger: a durable record per (video, viewer) that expires after the
//     retention window (24h by default). Its insert-if-absent is the only
//     thing that prevents double counting under concurrency.
//
// Ledger backends are SQLite (same transaction as the counter), Redis
// (SETNX with TTL) and DynamoDB (conditional put with a TTL attribute).
//
// A repeat view after the cooldown but inside the retention window is not
// counted; it only refreshes the fast tier.
package views
