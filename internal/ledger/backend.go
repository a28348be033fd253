package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/certledger/internal/ir"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("ledger: closed")

// Backend is the Ledger Store contract.
//
// The memory backend never returns a non-nil error; errors exist for
// backends that wrap a database driver.
type Backend interface {
	// Submit digests in, assigns the next sequence number, stamps the
	// current time and stores the record under certificateID, overwriting
	// any prior record. Records are verified on creation.
	Submit(ctx context.Context, certificateID string, in ir.CertificateInput) (ir.LedgerRecord, error)

	// Get returns the record for certificateID and whether it exists.
	Get(ctx context.Context, certificateID string) (ir.LedgerRecord, bool, error)

	// List returns all records in first-insertion order of their ids.
	List(ctx context.Context) ([]ir.LedgerRecord, error)

	// Confirm marks the record verified. Returns false if absent.
	Confirm(ctx context.Context, certificateID string) (bool, error)

	// Stats recomputes ledger totals.
	Stats(ctx context.Context) (ir.Stats, error)

	// Close releases backend resources.
	Close() error
}

// Options configures a backend. Zero values select defaults.
type Options struct {
	// Digest computes record digests. Defaults to ir.Digest (legacy32).
	Digest ir.DigestFunc

	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time

	// Logger receives debug events. Defaults to a discarding logger.
	Logger *slog.Logger
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Digest == nil {
		o.Digest = ir.Digest
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
