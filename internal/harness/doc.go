// Package harness runs ledger scenarios described in YAML.
//
// # Scenario Format
//
//	name: issue_and_verify
//	description: "What this scenario checks"
//	backend: memory        # memory (default) | sqlite
//	algorithm: legacy32    # legacy32 (default) | sha256
//	steps:
//	  - op: submit
//	    id: CERT-1         # omit to generate CERT-0001, CERT-0002, ...
//	    certificate: { studentName: Alice, courseName: Math, grade: A,
//	                   issueDate: "2024-01-01", instructorName: Bob }
//	    expect: { sequenceNumber: 1 }
//	  - op: verify
//	    id: CERT-1
//	    certificate: { ... }   # or digest: "<64 hex>"
//	    expect: { outcome: valid }
//	assertions:
//	  - type: trace_count
//	    op: submit
//	    count: 1
//	  - type: final_record
//	    id: CERT-1
//	    expect: { verified: true }
//
// Supported ops: submit, verify, confirm, get, list, stats, find_id,
// find_hash, search. Expect blocks are subset matches against the step
// result as it appears in the trace.
//
// Scenario files are decoded with unknown-field rejection and then checked
// against an embedded CUE schema.
//
// # Deterministic Testing
//
// Every run uses a fresh ledger, a wall clock starting at
// testutil.Epoch that advances one second per record, and sequential
// certificate ids. Traces are serialised with ir.MarshalCanonical so golden
// files are byte-stable.
package harness
