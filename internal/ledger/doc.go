// Package ledger defines the Ledger Store contract and its in-memory
// implementation.
//
// A ledger maps certificate ids to records and owns one process-wide
// sequence counter. Invariants every Backend upholds:
//   - Sequence numbers are strictly increasing across all submissions,
//     including overwrites; no two submissions share one
//   - A second submission under the same id overwrites the record in place;
//     the id keeps its first-insertion position in List
//   - Digests never change after a record is written; Verified only moves
//     from false to true
//   - Records are never deleted
//   - Readers see a record either fully written or absent
//
// Nothing is persisted across process restarts.
package ledger
