package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/certledger/internal/ir"
)

const aliceDigest = "000000000000000000000000000000000000000000000000000000001154f3c4"

var aliceFlags = []string{
	"--student", "Alice",
	"--course", "Math",
	"--grade", "A",
	"--date", "2024-01-01",
	"--instructor", "Bob",
}

func TestDigest_Text(t *testing.T) {
	out, _, err := execute(t, append([]string{"digest"}, aliceFlags...)...)
	require.NoError(t, err)
	assert.Equal(t, aliceDigest+"\n", out)
}

func TestDigest_NoFieldsIsAllZeros(t *testing.T) {
	out, _, err := execute(t, "digest")
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000000\n", out)
}

func TestDigest_JSONSHA256(t *testing.T) {
	args := append([]string{"digest", "--format", "json", "--algorithm", "sha256"}, aliceFlags...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   DigestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sha256", resp.Data.Algorithm)
	assert.Equal(t, "ff1a11ee50a62ff21ab1e02d070c43cb3b91a966e64ba5143cdb805b3154d8f4", resp.Data.Digest)
}

func TestDigest_ExpectMatch(t *testing.T) {
	args := append([]string{"digest", "--expect", aliceDigest}, aliceFlags...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, ir.MessageValid)
}

func TestDigest_ExpectMismatch(t *testing.T) {
	args := append([]string{"digest", "--format", "json", "--expect", aliceDigest}, aliceFlags...)
	args[len(args)-5] = "B" // grade
	out, _, err := execute(t, args...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeDigestMismatch, resp.Error.Code)
	assert.Equal(t, ir.MessageTampered, resp.Error.Message)
}

func TestDigest_InvalidAlgorithm(t *testing.T) {
	_, _, err := execute(t, "digest", "--algorithm", "md5")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDigest_EnvSelectsAlgorithm(t *testing.T) {
	isolateConfig(t)
	t.Setenv("CERTLEDGER_DIGEST_ALGORITHM", "sha256")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"digest"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855\n", out.String())
}
