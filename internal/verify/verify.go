// Package verify classifies certificate digests against the ledger.
//
// Every lookup is read-only. Outcomes (Valid, Tampered, NotFound) are values;
// an error is returned only when the underlying backend fails.
package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/certledger/internal/ir"
)

// Source is the read side of a ledger backend.
type Source interface {
	Get(ctx context.Context, certificateID string) (ir.LedgerRecord, bool, error)
	List(ctx context.Context) ([]ir.LedgerRecord, error)
}

// Verifier is the Verification Service.
type Verifier struct {
	src    Source
	logger *slog.Logger
}

// New creates a verifier reading from src. A nil logger discards output.
func New(src Source, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Verifier{src: src, logger: logger}
}

// Verify compares expectedDigest with the stored digest for certificateID.
// The comparison is exact and case-sensitive.
func (v *Verifier) Verify(ctx context.Context, certificateID, expectedDigest string) (ir.VerificationResult, error) {
	rec, ok, err := v.src.Get(ctx, certificateID)
	if err != nil {
		return ir.VerificationResult{}, fmt.Errorf("verify: %w", err)
	}
	if !ok {
		v.logger.Debug("verification: not found", "certificate_id", certificateID)
		return ir.NotFound(), nil
	}
	if rec.Digest != expectedDigest {
		v.logger.Warn("verification: digest mismatch",
			"certificate_id", certificateID,
			"seq", rec.SequenceNumber,
		)
		return ir.Tampered(rec), nil
	}
	return ir.Valid(rec), nil
}

// FindByIDSubstring returns the first record, in list order, whose id
// contains fragment ignoring case.
func (v *Verifier) FindByIDSubstring(ctx context.Context, fragment string) (ir.LedgerRecord, bool, error) {
	// cases.Caser is stateful; build one per call.
	lower := cases.Lower(language.Und)
	needle := lower.String(fragment)

	return v.first(ctx, func(rec ir.LedgerRecord) bool {
		return strings.Contains(lower.String(rec.CertificateID), needle)
	})
}

// FindByHashPrefix returns the first record, in list order, whose digest
// starts with fragment. The match is case-sensitive.
func (v *Verifier) FindByHashPrefix(ctx context.Context, fragment string) (ir.LedgerRecord, bool, error) {
	return v.first(ctx, func(rec ir.LedgerRecord) bool {
		return strings.HasPrefix(rec.Digest, fragment)
	})
}

// Search looks query up by id substring, then by digest prefix, and verifies
// the match against its own stored digest. A miss yields NotFound.
func (v *Verifier) Search(ctx context.Context, query string) (ir.LedgerRecord, ir.VerificationResult, error) {
	rec, ok, err := v.FindByIDSubstring(ctx, query)
	if err != nil {
		return ir.LedgerRecord{}, ir.VerificationResult{}, err
	}
	if !ok {
		rec, ok, err = v.FindByHashPrefix(ctx, query)
		if err != nil {
			return ir.LedgerRecord{}, ir.VerificationResult{}, err
		}
	}
	if !ok {
		return ir.LedgerRecord{}, ir.NotFound(), nil
	}

	res, err := v.Verify(ctx, rec.CertificateID, rec.Digest)
	if err != nil {
		return ir.LedgerRecord{}, ir.VerificationResult{}, err
	}
	return rec, res, nil
}

// first scans the ledger in list order. The scan is linear; ledgers are
// small and in memory.
func (v *Verifier) first(ctx context.Context, match func(ir.LedgerRecord) bool) (ir.LedgerRecord, bool, error) {
	all, err := v.src.List(ctx)
	if err != nil {
		return ir.LedgerRecord{}, false, fmt.Errorf("scan ledger: %w", err)
	}
	for _, rec := range all {
		if match(rec) {
			return rec, true, nil
		}
	}
	return ir.LedgerRecord{}, false, nil
}
