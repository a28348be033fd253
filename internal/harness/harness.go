package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/certledger/internal/ids"
	"github.com/roach88/certledger/internal/ir"
	"github.com/roach88/certledger/internal/logging"
	"github.com/roach88/certledger/internal/service"
	"github.com/roach88/certledger/internal/testutil"
)

// Options tunes a run. The zero value is valid.
type Options struct {
	Logger   *slog.Logger
	IDPrefix string // defaults to ids.DefaultPrefix
}

// harness executes one scenario against one fresh service.
type harness struct {
	svc    *service.Service
	digest ir.DigestFunc
	logger *slog.Logger
}

// Run executes scenario against a fresh ledger.
//
// Expectation and assertion mismatches are reported in Result.Errors. A
// non-nil error means the scenario could not be run at all.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.IDPrefix == "" {
		opts.IDPrefix = ids.DefaultPrefix
	}

	alg, err := ir.ParseAlgorithm(scenario.Algorithm)
	if err != nil {
		return nil, err
	}

	svc, err := service.New(service.Options{
		Backend:   scenario.Backend,
		Algorithm: alg,
		IDs:       ids.NewSequenceGenerator(opts.IDPrefix),
		Now:       testutil.NewDefaultStepClock().Now,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}
	defer svc.Close()

	h := &harness{svc: svc, digest: alg.Func(), logger: opts.Logger}

	result := NewResult()
	for i, step := range scenario.Steps {
		args, out, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.AddTrace(i, step.Op, args, out)

		for _, msg := range matchExpect(out, step.Expect) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Op, msg))
		}

		h.logger.Debug("step completed", "step", i, "op", step.Op)
	}

	for _, msg := range h.evaluateAssertions(ctx, result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one step and returns its trace args and result.
func (h *harness) execute(ctx context.Context, step Step) (map[string]any, map[string]any, error) {
	args := stepArgs(step)

	switch step.Op {
	case OpSubmit:
		var (
			rec ir.LedgerRecord
			err error
		)
		if step.ID == nil {
			rec, err = h.svc.Issue(ctx, *step.Certificate)
		} else {
			rec, err = h.svc.Submit(ctx, *step.ID, *step.Certificate)
		}
		if err != nil {
			return nil, nil, err
		}
		return args, ir.RecordMap(rec), nil

	case OpVerify:
		digest := step.Digest
		if step.Certificate != nil {
			digest = h.digest(*step.Certificate)
			args["digest"] = digest
		}
		res, err := h.svc.Verify(ctx, *step.ID, digest)
		if err != nil {
			return nil, nil, err
		}
		return args, ir.ResultMap(res), nil

	case OpConfirm:
		ok, err := h.svc.Confirm(ctx, *step.ID)
		if err != nil {
			return nil, nil, err
		}
		return args, map[string]any{"confirmed": ok}, nil

	case OpGet:
		rec, ok, err := h.svc.Get(ctx, *step.ID)
		if err != nil {
			return nil, nil, err
		}
		return args, lookupMap(rec, ok), nil

	case OpList:
		recs, err := h.svc.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		list := make([]any, len(recs))
		for i, rec := range recs {
			list[i] = ir.RecordMap(rec)
		}
		return args, map[string]any{"count": len(recs), "records": list}, nil

	case OpStats:
		st, err := h.svc.Stats(ctx)
		if err != nil {
			return nil, nil, err
		}
		return args, ir.StatsMap(st), nil

	case OpFindID:
		rec, ok, err := h.svc.FindByIDSubstring(ctx, step.Query)
		if err != nil {
			return nil, nil, err
		}
		return args, lookupMap(rec, ok), nil

	case OpFindHash:
		rec, ok, err := h.svc.FindByHashPrefix(ctx, step.Query)
		if err != nil {
			return nil, nil, err
		}
		return args, lookupMap(rec, ok), nil

	case OpSearch:
		rec, res, err := h.svc.Search(ctx, step.Query)
		if err != nil {
			return nil, nil, err
		}
		out := map[string]any{"result": ir.ResultMap(res)}
		if res.Outcome != ir.OutcomeNotFound {
			out["record"] = ir.RecordMap(rec)
		}
		return args, out, nil
	}

	return nil, nil, fmt.Errorf("unknown op %q", step.Op)
}

func stepArgs(step Step) map[string]any {
	args := map[string]any{}
	if step.ID != nil {
		args["id"] = *step.ID
	}
	if step.Certificate != nil {
		c := step.Certificate
		args["certificate"] = map[string]any{
			"studentName":    c.StudentName,
			"courseName":     c.CourseName,
			"grade":          c.Grade,
			"issueDate":      c.IssueDate,
			"instructorName": c.InstructorName,
		}
	}
	if step.Digest != "" {
		args["digest"] = step.Digest
	}
	switch step.Op {
	case OpFindID, OpFindHash, OpSearch:
		args["query"] = step.Query
	}
	return args
}

func lookupMap(rec ir.LedgerRecord, ok bool) map[string]any {
	out := map[string]any{"found": ok}
	if ok {
		out["record"] = ir.RecordMap(rec)
	}
	return out
}
