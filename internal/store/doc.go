// Package store provides SQLite-backed durable storage for the gift exchange.
//
// The store holds two kinds of data:
//   - The roster: a single JSON document mapping participant id to gift
//     profile. Every write reads the document, changes it and rewrites the
//     whole body inside one transaction, bumping a revision counter.
//   - The run journal: one row per exchange run that committed assignments,
//     plus one delivery row per participant notified during that run.
//
// The roster document is the sole source of truth for assignments. Nothing is
// cached in memory between calls.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection, so writes are serialized in-process
//
// Memory implements the same contract without SQLite for tests and the
// scenario harness.
package store
