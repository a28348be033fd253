// Package service wires one ledger backend to the verification and stats
// components and exposes the ledger operations collaborators call.
//
// A Service is constructed once per process and passed by pointer; it is the
// only owner of ledger state.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/certledger/internal/ids"
	"github.com/roach88/certledger/internal/ir"
	"github.com/roach88/certledger/internal/ledger"
	"github.com/roach88/certledger/internal/logging"
	"github.com/roach88/certledger/internal/stats"
	"github.com/roach88/certledger/internal/store"
	"github.com/roach88/certledger/internal/verify"
)

// Backend names accepted by Options.Backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Options configures New.
type Options struct {
	Backend   string       // BackendMemory (default) or BackendSQLite
	Algorithm ir.Algorithm // defaults to legacy32
	IDs       ids.Generator
	Now       func() time.Time
	Logger    *slog.Logger
}

// Service is the certificate ledger facade.
type Service struct {
	backend  ledger.Backend
	verifier *verify.Verifier
	reporter *stats.Reporter
	ids      ids.Generator
	logger   *slog.Logger
}

// New builds the backend named in opts and wraps it.
func New(opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Algorithm == "" {
		opts.Algorithm = ir.AlgorithmLegacy32
	}
	if opts.Algorithm != ir.AlgorithmLegacy32 {
		opts.Logger.Warn("non-default digest algorithm: digests will not match previously issued certificates",
			"algorithm", opts.Algorithm)
	}

	lopts := ledger.Options{
		Digest: opts.Algorithm.Func(),
		Now:    opts.Now,
		Logger: opts.Logger,
	}

	var backend ledger.Backend
	switch opts.Backend {
	case "", BackendMemory:
		backend = ledger.NewMemory(lopts)
	case BackendSQLite:
		st, err := store.Open(lopts)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		backend = st
	default:
		return nil, fmt.Errorf("unknown backend %q: must be %q or %q", opts.Backend, BackendMemory, BackendSQLite)
	}

	opts.Logger.Debug("ledger ready", "backend", backendName(opts.Backend), "algorithm", opts.Algorithm)
	return NewWithBackend(backend, opts.IDs, opts.Logger), nil
}

// NewWithBackend wraps an existing backend. A nil generator defaults to
// UUIDv7 ids with the standard prefix.
func NewWithBackend(backend ledger.Backend, gen ids.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if gen == nil {
		gen = ids.UUIDv7Generator{Prefix: ids.DefaultPrefix}
	}
	return &Service{
		backend:  backend,
		verifier: verify.New(backend, logger),
		reporter: stats.New(backend),
		ids:      gen,
		logger:   logger,
	}
}

func backendName(name string) string {
	if name == "" {
		return BackendMemory
	}
	return name
}

// Submit records in under certificateID, overwriting any prior record.
func (s *Service) Submit(ctx context.Context, certificateID string, in ir.CertificateInput) (ir.LedgerRecord, error) {
	return s.backend.Submit(ctx, certificateID, in)
}

// Issue submits in under a freshly generated certificate id.
func (s *Service) Issue(ctx context.Context, in ir.CertificateInput) (ir.LedgerRecord, error) {
	return s.backend.Submit(ctx, s.ids.Generate(), in)
}

// Get returns the record for certificateID.
func (s *Service) Get(ctx context.Context, certificateID string) (ir.LedgerRecord, bool, error) {
	return s.backend.Get(ctx, certificateID)
}

// List returns all records in first-insertion order.
func (s *Service) List(ctx context.Context) ([]ir.LedgerRecord, error) {
	return s.backend.List(ctx)
}

// Confirm marks a record verified; false if it does not exist.
func (s *Service) Confirm(ctx context.Context, certificateID string) (bool, error) {
	return s.backend.Confirm(ctx, certificateID)
}

// Verify classifies expectedDigest against the stored record.
func (s *Service) Verify(ctx context.Context, certificateID, expectedDigest string) (ir.VerificationResult, error) {
	return s.verifier.Verify(ctx, certificateID, expectedDigest)
}

// FindByIDSubstring returns the first record whose id contains fragment,
// ignoring case.
func (s *Service) FindByIDSubstring(ctx context.Context, fragment string) (ir.LedgerRecord, bool, error) {
	return s.verifier.FindByIDSubstring(ctx, fragment)
}

// FindByHashPrefix returns the first record whose digest starts with fragment.
func (s *Service) FindByHashPrefix(ctx context.Context, fragment string) (ir.LedgerRecord, bool, error) {
	return s.verifier.FindByHashPrefix(ctx, fragment)
}

// Search finds a record by id fragment or digest prefix and verifies it.
func (s *Service) Search(ctx context.Context, query string) (ir.LedgerRecord, ir.VerificationResult, error) {
	return s.verifier.Search(ctx, query)
}

// Stats recomputes ledger totals.
func (s *Service) Stats(ctx context.Context) (ir.Stats, error) {
	return s.reporter.Report(ctx)
}

// Close releases the backend. Ledger contents are lost.
func (s *Service) Close() error {
	return s.backend.Close()
}
