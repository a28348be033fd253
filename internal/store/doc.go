// Package store provides a SQLite-backed ledger.Backend.
//
// The database always lives in memory: nothing survives Close or a process
// restart. The backend exists so the ledger contract can be exercised
// against a transactional engine with the same invariants as the map-based
// ledger.
//
// # Tables
//
//   - records: one row per certificate id. position is assigned on first
//     insert and never changes, which gives List its first-insertion order.
//   - ledger_counter: a single row holding the last issued sequence number.
//
// # Critical Patterns
//
// Sequencing: Submit increments ledger_counter and upserts the record in one
// transaction, so a sequence number is never issued twice and never lost.
//
// Overwrite: ON CONFLICT(certificate_id) DO UPDATE replaces digest, seq,
// created_at and verified but keeps position.
//
// Deterministic reads: List orders by position ASC.
//
// # Database Configuration
//
//   - Single connection: an in-memory database is private to its connection
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - temp_store=MEMORY
package store
