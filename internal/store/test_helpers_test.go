package store

import (
	"testing"

	"github.com/roach88/certledger/internal/ledger"
	"github.com/roach88/certledger/internal/testutil"
)

// createTestStore creates a new in-memory store with a deterministic clock.
func createTestStore(t *testing.T) (*Store, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewDefaultStepClock()
	s, err := Open(ledger.Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}
