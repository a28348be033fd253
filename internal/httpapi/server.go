// Package httpapi maps ledger operations onto JSON over HTTP.
//
// Success responses carry the bare payload. Failures carry
// {"status":"error","error":{"code":...,"message":...}}.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/certledger/internal/ir"
	"github.com/roach88/certledger/internal/logging"
)

// Error codes returned in error bodies.
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL"
)

const maxBodyBytes = 1 << 20

// Ledger is the set of operations the server exposes. *service.Service
// satisfies it.
type Ledger interface {
	Submit(ctx context.Context, certificateID string, in ir.CertificateInput) (ir.LedgerRecord, error)
	Issue(ctx context.Context, in ir.CertificateInput) (ir.LedgerRecord, error)
	Get(ctx context.Context, certificateID string) (ir.LedgerRecord, bool, error)
	List(ctx context.Context) ([]ir.LedgerRecord, error)
	Confirm(ctx context.Context, certificateID string) (bool, error)
	Verify(ctx context.Context, certificateID, expectedDigest string) (ir.VerificationResult, error)
	FindByIDSubstring(ctx context.Context, fragment string) (ir.LedgerRecord, bool, error)
	FindByHashPrefix(ctx context.Context, fragment string) (ir.LedgerRecord, bool, error)
	Search(ctx context.Context, query string) (ir.LedgerRecord, ir.VerificationResult, error)
	Stats(ctx context.Context) (ir.Stats, error)
}

// SubmitRequest is the body of POST /v1/certificates. A missing
// certificateId asks the server to generate one; an explicit empty string
// is stored as given.
type SubmitRequest struct {
	CertificateID *string `json:"certificateId"`
	ir.CertificateInput
}

// VerifyRequest is the body of POST /v1/verify.
type VerifyRequest struct {
	CertificateID string `json:"certificateId"`
	Digest        string `json:"digest"`
}

// ConfirmResponse is returned by POST /v1/certificates/{id}/confirm.
type ConfirmResponse struct {
	Confirmed bool `json:"confirmed"`
}

// SearchResponse is returned by GET /v1/search?q=. Record is absent when
// nothing matched.
type SearchResponse struct {
	Record *ir.LedgerRecord       `json:"record,omitempty"`
	Result ir.VerificationResult `json:"result"`
}

type errorBody struct {
	Status string    `json:"status"`
	Error  errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server routes HTTP requests to a Ledger.
type Server struct {
	ledger Ledger
	logger *slog.Logger
	router chi.Router
}

// New builds the router. A nil logger discards.
func New(ledger Ledger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{ledger: ledger, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(api chi.Router) {
		api.Post("/certificates", s.handleSubmit)
		api.Get("/certificates", s.handleList)
		api.Get("/certificates/{id}", s.handleGet)
		api.Post("/certificates/{id}/confirm", s.handleConfirm)
		api.Post("/verify", s.handleVerify)
		api.Get("/search", s.handleSearch)
		api.Get("/stats", s.handleStats)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var (
		rec ir.LedgerRecord
		err error
	)
	if req.CertificateID == nil {
		rec, err = s.ledger.Issue(r.Context(), req.CertificateInput)
	} else {
		rec, err = s.ledger.Submit(r.Context(), *req.CertificateID, req.CertificateInput)
	}
	if err != nil {
		s.internal(w, r, "submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.ledger.List(r.Context())
	if err != nil {
		s.internal(w, r, "list", err)
		return
	}
	if recs == nil {
		recs = []ir.LedgerRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		s.internal(w, r, "get", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, ir.MessageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.ledger.Confirm(r.Context(), id)
	if err != nil {
		s.internal(w, r, "confirm", err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmResponse{Confirmed: ok})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	res, err := s.ledger.Verify(r.Context(), req.CertificateID, req.Digest)
	if err != nil {
		s.internal(w, r, "verify", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Has("id"), q.Has("hash"):
		var (
			rec ir.LedgerRecord
			ok  bool
			err error
		)
		if q.Has("id") {
			rec, ok, err = s.ledger.FindByIDSubstring(r.Context(), q.Get("id"))
		} else {
			rec, ok, err = s.ledger.FindByHashPrefix(r.Context(), q.Get("hash"))
		}
		if err != nil {
			s.internal(w, r, "search", err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, CodeNotFound, ir.MessageNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case q.Has("q"):
		rec, res, err := s.ledger.Search(r.Context(), q.Get("q"))
		if err != nil {
			s.internal(w, r, "search", err)
			return
		}
		resp := SearchResponse{Result: res}
		if res.Outcome != ir.OutcomeNotFound {
			resp.Record = &rec
		}
		writeJSON(w, http.StatusOK, resp)

	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "one of id, hash or q is required")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.internal(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error("request failed", "op", op, "request_id", middleware.GetReqID(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, CodeInternal, op+" failed")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Status: "error", Error: errorInfo{Code: code, Message: message}})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// within shutdownTimeout. ready, if non-nil, receives the bound address.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *slog.Logger, ready func(net.Addr)) error {
	if logger == nil {
		logger = logging.Discard()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("http server listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
