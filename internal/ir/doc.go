// Package ir provides the foundational certificate ledger types.
//
// This package contains type definitions, the digest routines, and the
// canonical JSON encoder used for deterministic snapshots. All other internal
// packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - Digests are always 64 lowercase hex characters
//   - Sequence numbers start at 1 and only increase
//   - Verification outcomes are values, never errors
package ir
