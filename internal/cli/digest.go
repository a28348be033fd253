package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/certledger/internal/ir"
)

// DigestOptions holds flags for the digest command.
type DigestOptions struct {
	*RootOptions
	Certificate ir.CertificateInput
	Expect      string
}

// DigestResult is the JSON payload of the digest command.
type DigestResult struct {
	Algorithm string     `json:"algorithm"`
	Digest    string     `json:"digest"`
	Outcome   ir.Outcome `json:"outcome,omitempty"`
}

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DigestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Compute a certificate digest",
		Long: `Compute the digest the ledger would record for a certificate.

With --expect, compare the computed digest with a previously issued one
and exit 1 on mismatch.

Examples:
  certledger digest --student Alice --course Math --grade A --date 2024-01-01 --instructor Bob
  certledger digest --student Alice ... --expect 000...1154f3c4
  certledger digest --student Alice ... --algorithm sha256 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Certificate.StudentName, "student", "", "student name")
	cmd.Flags().StringVar(&opts.Certificate.CourseName, "course", "", "course name")
	cmd.Flags().StringVar(&opts.Certificate.Grade, "grade", "", "grade")
	cmd.Flags().StringVar(&opts.Certificate.IssueDate, "date", "", "issue date")
	cmd.Flags().StringVar(&opts.Certificate.InstructorName, "instructor", "", "instructor name")
	cmd.Flags().String("algorithm", string(ir.AlgorithmLegacy32), "digest algorithm (legacy32|sha256)")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "previously issued digest to compare against")

	return cmd
}

func runDigest(opts *DigestOptions, cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	alg := cfg.Algorithm()
	res := DigestResult{
		Algorithm: string(alg),
		Digest:    alg.Func()(opts.Certificate),
	}
	logger.Debug("digest computed", "algorithm", alg, "digest", res.Digest)

	if opts.Expect != "" {
		res.Outcome = ir.OutcomeValid
		if res.Digest != opts.Expect {
			res.Outcome = ir.OutcomeTampered
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if res.Outcome == ir.OutcomeTampered {
		if err := out.Error(CodeDigestMismatch, ir.MessageTampered, res); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "digest mismatch")
	}

	if opts.Format == "json" {
		return out.Success(res)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, res.Digest)
	if res.Outcome == ir.OutcomeValid {
		fmt.Fprintf(w, "✓ %s\n", ir.MessageValid)
	}
	return nil
}
