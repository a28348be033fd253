// Package stats reports ledger totals.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/certledger/internal/ir"
)

// Source yields fresh ledger totals.
type Source interface {
	Stats(ctx context.Context) (ir.Stats, error)
}

// Reporter is the Stats Reporter. It holds no state of its own and
// recomputes on every call.
type Reporter struct {
	src Source
}

// New creates a reporter over src.
func New(src Source) *Reporter {
	return &Reporter{src: src}
}

// Report returns the current totals.
func (r *Reporter) Report(ctx context.Context) (ir.Stats, error) {
	st, err := r.src.Stats(ctx)
	if err != nil {
		return ir.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Summary renders totals as a single human-readable line.
func Summary(st ir.Stats) string {
	last := "never"
	if st.LastRecordTime != nil {
		last = st.LastRecordTime.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("certificates=%d blocks=%d last_record=%s",
		st.TotalCertificates, st.TotalBlocks, last)
}
