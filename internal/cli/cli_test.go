package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

// isolateConfig keeps user config files and CERTLEDGER_* variables out of
// command tests.
func isolateConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"CERTLEDGER_LOG_LEVEL", "CERTLEDGER_LOG_FORMAT", "CERTLEDGER_STORE_BACKEND",
		"CERTLEDGER_DIGEST_ALGORITHM", "CERTLEDGER_HTTP_ADDR", "CERTLEDGER_IDS_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	isolateConfig(t)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
