package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/certledger/internal/ir"
)

func TestServe_SubmitVerifyShutdown(t *testing.T) {
	isolateConfig(t)

	rootOpts := &RootOptions{Format: "text"}
	opts := &ServeOptions{RootOptions: rootOpts}
	addrCh := make(chan net.Addr, 1)
	opts.Ready = func(a net.Addr) { addrCh <- a }

	cmd := newServeCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0", "--backend", "sqlite"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- cmd.Execute() }()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	base := "http://" + addr.String()

	body := `{"certificateId":"CERT-1","studentName":"Alice","courseName":"Math","grade":"A","issueDate":"2024-01-01","instructorName":"Bob"}`
	resp, err := http.Post(base+"/v1/certificates", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	var rec ir.LedgerRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, aliceDigest, rec.Digest)

	resp, err = http.Post(base+"/v1/verify", "application/json",
		strings.NewReader(`{"certificateId":"CERT-1","digest":"`+aliceDigest+`"}`))
	require.NoError(t, err)
	var res ir.VerificationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	assert.Equal(t, ir.OutcomeValid, res.Outcome)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Contains(t, out.String(), "Listening on http://127.0.0.1:")
}

func TestServe_UnknownBackend(t *testing.T) {
	_, _, err := execute(t, "serve", "--backend", "postgres")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestServe_BadAddress(t *testing.T) {
	_, _, err := execute(t, "serve", "--addr", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
