package store

import (
	"context"
	"fmt"

	"github.com/roach88/certledger/internal/ir"
)

// Submit claims the next sequence number and upserts the record in a single
// transaction. An existing certificate id keeps its list position.
func (s *Store) Submit(ctx context.Context, certificateID string, in ir.CertificateInput) (ir.LedgerRecord, error) {
	if err := s.checkOpen(); err != nil {
		return ir.LedgerRecord{}, err
	}

	digest := s.digest(in)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.LedgerRecord{}, fmt.Errorf("submit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `UPDATE ledger_counter SET seq = seq + 1 WHERE id = 1`); err != nil {
		return ir.LedgerRecord{}, fmt.Errorf("submit: advance counter: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT seq FROM ledger_counter WHERE id = 1`).Scan(&seq); err != nil {
		return ir.LedgerRecord{}, fmt.Errorf("submit: read counter: %w", err)
	}

	rec := ir.LedgerRecord{
		CertificateID:  certificateID,
		Digest:         digest,
		SequenceNumber: seq,
		CreatedAt:      decodeTime(encodeTime(s.now())),
		Verified:       true,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (certificate_id, digest, seq, created_at, verified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(certificate_id) DO UPDATE SET
			digest     = excluded.digest,
			seq        = excluded.seq,
			created_at = excluded.created_at,
			verified   = excluded.verified
	`,
		rec.CertificateID,
		rec.Digest,
		rec.SequenceNumber,
		encodeTime(rec.CreatedAt),
		encodeBool(rec.Verified),
	)
	if err != nil {
		return ir.LedgerRecord{}, fmt.Errorf("submit: upsert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.LedgerRecord{}, fmt.Errorf("submit: commit: %w", err)
	}

	s.logger.Debug("certificate submitted",
		"certificate_id", certificateID,
		"seq", seq,
		"backend", "sqlite",
	)
	return rec, nil
}

// Confirm sets verified on an existing record. Digest is never touched.
func (s *Store) Confirm(ctx context.Context, certificateID string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE records SET verified = 1 WHERE certificate_id = ?
	`, certificateID)
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("confirm: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
