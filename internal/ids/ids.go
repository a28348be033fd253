// Package ids generates certificate identifiers for collaborators that do not
// supply their own. The ledger itself accepts any caller string.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// DefaultPrefix starts every generated identifier.
const DefaultPrefix = "CERT-"

// Generator produces certificate identifiers.
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable identifiers: prefix + UUIDv7.
//
// UUIDv7 embeds a timestamp in the most significant bits, so generated ids
// sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct {
	Prefix string
}

// Generate returns e.g. "CERT-0190b6f4-6a3c-7d2e-9a1b-3c4d5e6f7a8b".
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return g.Prefix + uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns prefix + a zero-padded counter starting at 1.
// Used for deterministic scenario runs.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator: "CERT-0001", "CERT-0002", ...
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%04d", g.prefix, g.n)
}

// FixedGenerator returns predetermined identifiers for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch test misconfiguration.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
