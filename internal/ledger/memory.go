package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/certledger/internal/ir"
)

// MemoryLedger is the in-process Backend.
//
// A single RWMutex guards the map, the insertion order and the clock, so
// Submit's claim-number-then-store is one critical section and readers
// never observe a half-written record. Records are stored and returned by
// value.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]ir.LedgerRecord
	order   []string // ids in first-insertion order
	latest  string   // id holding the highest sequence number
	clock   *Clock

	digest ir.DigestFunc
	now    func() time.Time
	logger *slog.Logger
}

var _ Backend = (*MemoryLedger)(nil)

// NewMemory creates an empty in-memory ledger.
func NewMemory(opts Options) *MemoryLedger {
	opts = opts.WithDefaults()
	return &MemoryLedger{
		records: make(map[string]ir.LedgerRecord),
		clock:   NewClock(),
		digest:  opts.Digest,
		now:     opts.Now,
		logger:  opts.Logger,
	}
}

func (m *MemoryLedger) Submit(_ context.Context, certificateID string, in ir.CertificateInput) (ir.LedgerRecord, error) {
	// The digest is pure; compute it outside the lock.
	digest := m.digest(in)

	m.mu.Lock()
	rec := ir.LedgerRecord{
		CertificateID:  certificateID,
		Digest:         digest,
		SequenceNumber: m.clock.Next(),
		CreatedAt:      m.now(),
		Verified:       true,
	}
	if _, exists := m.records[certificateID]; !exists {
		m.order = append(m.order, certificateID)
	}
	m.records[certificateID] = rec
	m.latest = certificateID
	m.mu.Unlock()

	m.logger.Debug("certificate submitted",
		"certificate_id", certificateID,
		"seq", rec.SequenceNumber,
	)
	return rec, nil
}

func (m *MemoryLedger) Get(_ context.Context, certificateID string) (ir.LedgerRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[certificateID]
	return rec, ok, nil
}

func (m *MemoryLedger) List(_ context.Context) ([]ir.LedgerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ir.LedgerRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *MemoryLedger) Confirm(_ context.Context, certificateID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[certificateID]
	if !ok {
		return false, nil
	}
	rec.Verified = true
	m.records[certificateID] = rec
	return true, nil
}

func (m *MemoryLedger) Stats(_ context.Context) (ir.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := ir.Stats{
		TotalCertificates: len(m.records),
		TotalBlocks:       m.clock.Current(),
	}
	if rec, ok := m.records[m.latest]; ok {
		at := rec.CreatedAt
		st.LastRecordTime = &at
	}
	return st, nil
}

// Close is a no-op; the memory ledger holds no external resources.
func (m *MemoryLedger) Close() error {
	return nil
}
