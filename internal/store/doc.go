// Package store provides SQLite-backed durable storage for tercel trace
// runs.
//
// The store is an append-only audit log of network events: one row per
// listener callback, grouped by run token and ordered by a logical
// sequence counter. It backs the Recorder listener and the trace CLI
// command. It does NOT persist working memory; sessions are in-process
// values and rebuilding one replays its inputs, not this log.
//
// Ordering uses seq INTEGER (a logical clock), never wall-clock
// timestamps, so a recorded run reads back identically regardless of when
// or where it is opened. All queries order by seq ASC.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
