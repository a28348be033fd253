package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenarioDir = "../harness/testdata/scenarios"
	goldenDir   = "../harness/testdata/golden"
)

func TestRun_MissingArgs(t *testing.T) {
	_, _, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRun_AllScenariosPass(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	out, _, err := execute(t, append([]string{"run", "--golden", goldenDir}, files...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ issue_and_verify (5 steps)")
	assert.Contains(t, out, "0 failed")
}

func TestRun_VerbosePrintsTrace(t *testing.T) {
	out, _, err := execute(t, "run", "-v", filepath.Join(scenarioDir, "issue_and_verify.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "[1] verify")
	assert.Contains(t, out, `"outcome":"valid"`)
}

func TestRun_JSON(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "json", filepath.Join(scenarioDir, "sha256_algorithm.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "sha256_algorithm", resp.Data.Scenarios[0].Name)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Trace)
}

func TestRun_FailedExpectationExitsOne(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "fails.yaml")
	scenario := `
name: fails
description: "expects the wrong outcome"
steps:
  - op: verify
    id: CERT-404
    digest: "00"
    expect:
      outcome: valid
`
	require.NoError(t, os.WriteFile(file, []byte(scenario), 0o644))

	out, _, err := execute(t, "run", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ fails")
	assert.Contains(t, out, `outcome: expected "valid", got "not_found"`)
}

func TestRun_InvalidScenarioExitsTwo(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: bad\ndescription: d\nsteps:\n  - op: explode\n"), 0o644))

	_, _, err := execute(t, "run", file)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_MissingFileExitsTwo(t *testing.T) {
	_, _, err := execute(t, "run", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_GoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(scenarioDir, "lookup_and_search.yaml")

	_, _, err := execute(t, "run", "--golden", dir, "--update", file)
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "lookup_and_search.golden"))
	require.NoError(t, err)
	committed, err := os.ReadFile(filepath.Join(goldenDir, "lookup_and_search.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(committed), string(written))

	_, _, err = execute(t, "run", "--golden", dir, file)
	require.NoError(t, err)
}

func TestRun_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "issue_and_verify.golden"), []byte("{}"), 0o644))

	out, _, err := execute(t, "run", "--golden", dir, filepath.Join(scenarioDir, "issue_and_verify.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestRun_GoldenMissing(t *testing.T) {
	out, _, err := execute(t, "run", "--golden", t.TempDir(), filepath.Join(scenarioDir, "issue_and_verify.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "golden file not found")
}

func TestRun_UpdateRequiresGolden(t *testing.T) {
	_, _, err := execute(t, "run", "--update", filepath.Join(scenarioDir, "issue_and_verify.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
