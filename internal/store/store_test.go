package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/certledger/internal/ledger"
	"github.com/roach88/certledger/internal/ledger/ledgertest"
)

func TestStoreBackend(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T, opts ledger.Options) ledger.Backend {
		s, err := Open(opts)
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		return s
	})
}

func TestOpen_CreatesSchema(t *testing.T) {
	s, _ := createTestStore(t)

	tables := []string{"records", "ledger_counter"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}

	version, err := s.schemaVersion()
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_EachStoreIsIndependent(t *testing.T) {
	s1, _ := createTestStore(t)
	s2, _ := createTestStore(t)
	ctx := context.Background()

	if _, err := s1.Submit(ctx, "CERT-1", ledgertest.Alice); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	_, ok, err := s2.Get(ctx, "CERT-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ok {
		t.Error("record leaked between in-memory stores")
	}
}

func TestCounterStartsAtZero(t *testing.T) {
	s, _ := createTestStore(t)

	var seq int64
	if err := s.db.QueryRow("SELECT seq FROM ledger_counter WHERE id = 1").Scan(&seq); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if seq != 0 {
		t.Errorf("counter = %d, want 0", seq)
	}
}

func TestClose_Idempotent(t *testing.T) {
	s, err := Open(ledger.Options{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}

func TestClosedStoreReturnsErrClosed(t *testing.T) {
	s, err := Open(ledger.Options{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.Close()
	ctx := context.Background()

	if _, err := s.Submit(ctx, "C1", ledgertest.Alice); !errors.Is(err, ledger.ErrClosed) {
		t.Errorf("Submit() error = %v, want ErrClosed", err)
	}
	if _, _, err := s.Get(ctx, "C1"); !errors.Is(err, ledger.ErrClosed) {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
	if _, err := s.List(ctx); !errors.Is(err, ledger.ErrClosed) {
		t.Errorf("List() error = %v, want ErrClosed", err)
	}
	if _, err := s.Confirm(ctx, "C1"); !errors.Is(err, ledger.ErrClosed) {
		t.Errorf("Confirm() error = %v, want ErrClosed", err)
	}
	if _, err := s.Stats(ctx); !errors.Is(err, ledger.ErrClosed) {
		t.Errorf("Stats() error = %v, want ErrClosed", err)
	}
}
