package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/certledger/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	GoldenDir string // compare traces with <dir>/<name>.golden
	Update    bool   // rewrite golden files instead of comparing
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string          `json:"name"`
	File   string          `json:"file"`
	Pass   bool            `json:"pass"`
	Errors []string        `json:"errors,omitempty"`
	Trace  json.RawMessage `json:"trace,omitempty"` // canonical JSON

	events []harness.TraceEvent
}

// RunResult holds the overall result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run ledger scenarios",
		Long: `Run each scenario against a fresh ledger and check its expectations.

Runs are deterministic: the clock starts at 2024-01-01T00:00:00Z and
advances one second per record, and generated ids count up from 0001.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable or invalid scenario file)

Examples:
  certledger run scenarios/issue_and_verify.yaml
  certledger run scenarios/*.yaml --golden testdata/golden
  certledger run scenarios/*.yaml --golden testdata/golden --update
  certledger run scenarios/issue_and_verify.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runScenarios(opts *RunOptions, files []string, cmd *cobra.Command) error {
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	_, logger, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	// Load every file first so a typo fails fast without partial output.
	scenarios := make([]*harness.Scenario, len(files))
	for i, file := range files {
		sc, err := harness.LoadScenario(file)
		if err != nil {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			_ = out.Error(CodeScenarioLoad, err.Error(), map[string]string{"file": file})
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", file), err)
		}
		scenarios[i] = sc
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}

	for i, sc := range scenarios {
		sr, err := runOne(ctx, opts, sc, files[i], logger)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run %s", files[i]), err)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, result)
	}
	return outputRunText(cmd, opts, result)
}

func runOne(ctx context.Context, opts *RunOptions, sc *harness.Scenario, file string, logger *slog.Logger) (ScenarioResult, error) {
	res, err := harness.Run(ctx, sc, harness.Options{Logger: logger})
	if err != nil {
		return ScenarioResult{}, err
	}

	trace, err := harness.MarshalTrace(sc.Name, res)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("marshal trace: %w", err)
	}

	sr := ScenarioResult{
		Name:   sc.Name,
		File:   file,
		Pass:   res.Pass,
		Errors: res.Errors,
		Trace:  trace,
		events: res.Trace,
	}

	if opts.GoldenDir != "" {
		path := filepath.Join(opts.GoldenDir, sc.Name+".golden")
		if opts.Update {
			if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
				return ScenarioResult{}, fmt.Errorf("create golden dir: %w", err)
			}
			if err := os.WriteFile(path, trace, 0o644); err != nil {
				return ScenarioResult{}, fmt.Errorf("write golden file: %w", err)
			}
			logger.Info("golden file updated", "scenario", sc.Name, "path", path)
		} else {
			want, err := os.ReadFile(path)
			switch {
			case os.IsNotExist(err):
				sr.Pass = false
				sr.Errors = append(sr.Errors, fmt.Sprintf("golden file not found: %s", path))
			case err != nil:
				return ScenarioResult{}, fmt.Errorf("read golden file: %w", err)
			case !bytes.Equal(want, trace):
				sr.Pass = false
				sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
			}
		}
	}

	logger.Info("scenario finished", "scenario", sc.Name, "pass", sr.Pass, "steps", len(res.Trace))
	return sr, nil
}

// outputRunJSON writes the run result as JSON.
func outputRunJSON(cmd *cobra.Command, result RunResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    CodeScenarioFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputRunText writes one line per scenario, the trace in verbose mode, and
// a summary.
func outputRunText(cmd *cobra.Command, opts *RunOptions, result RunResult) error {
	w := cmd.OutOrStdout()

	for _, sr := range result.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (%d steps)\n", mark, sr.Name, len(sr.events))

		if opts.Verbose {
			for _, ev := range sr.events {
				fmt.Fprintf(w, "  [%d] %s %s\n", ev.Step, ev.Op, compact(ev.Result))
			}
		}
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
