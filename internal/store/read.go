package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/certledger/internal/ir"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ir.LedgerRecord, error) {
	var (
		rec       ir.LedgerRecord
		createdAt int64
		verified  int
	)
	if err := row.Scan(&rec.CertificateID, &rec.Digest, &rec.SequenceNumber, &createdAt, &verified); err != nil {
		return ir.LedgerRecord{}, err
	}
	rec.CreatedAt = decodeTime(createdAt)
	rec.Verified = verified != 0
	return rec, nil
}

// Get retrieves a single record by certificate id.
func (s *Store) Get(ctx context.Context, certificateID string) (ir.LedgerRecord, bool, error) {
	if err := s.checkOpen(); err != nil {
		return ir.LedgerRecord{}, false, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT certificate_id, digest, seq, created_at, verified
		FROM records
		WHERE certificate_id = ?
	`, certificateID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.LedgerRecord{}, false, nil
	}
	if err != nil {
		return ir.LedgerRecord{}, false, fmt.Errorf("get record: %w", err)
	}
	return rec, true, nil
}

// List returns every record in first-insertion order.
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) List(ctx context.Context) ([]ir.LedgerRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT certificate_id, digest, seq, created_at, verified
		FROM records
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []ir.LedgerRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// Stats derives totals from the records table and the counter row.
// LastRecordTime is the created_at of the highest sequence number.
func (s *Store) Stats(ctx context.Context) (ir.Stats, error) {
	if err := s.checkOpen(); err != nil {
		return ir.Stats{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Stats{}, fmt.Errorf("stats: begin tx: %w", err)
	}
	defer tx.Rollback()

	var st ir.Stats
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&st.TotalCertificates); err != nil {
		return ir.Stats{}, fmt.Errorf("stats: count records: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT seq FROM ledger_counter WHERE id = 1`).Scan(&st.TotalBlocks); err != nil {
		return ir.Stats{}, fmt.Errorf("stats: read counter: %w", err)
	}

	var createdAt int64
	err = tx.QueryRowContext(ctx, `
		SELECT created_at FROM records ORDER BY seq DESC LIMIT 1
	`).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ir.Stats{}, fmt.Errorf("stats: latest record: %w", err)
	default:
		at := decodeTime(createdAt)
		st.LastRecordTime = &at
	}

	return st, nil
}
