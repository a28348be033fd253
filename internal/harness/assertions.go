package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/certledger/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Step, event.Op, formatValue(event.Args))
		}
	}

	return buf.String()
}

// evaluateAssertions returns one message per failed assertion.
func (h *harness) evaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertFinalRecord:
			err = h.assertFinalRecord(ctx, a)
		case AssertFinalStats:
			err = h.assertFinalStats(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return errs
}

// assertTraceCount checks that op ran exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s x%d", a.Op, a.Count),
			Actual:   fmt.Sprintf("%s x%d", a.Op, count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the first occurrence of each op follows the
// first occurrence of the one before it. Other steps may intervene.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Op]; !seen {
			positions[event.Op] = i
		}
	}

	for _, op := range a.Ops {
		if _, ok := positions[op]; !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", a.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Ops); i++ {
		prev, curr := a.Ops[i-1], a.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual: fmt.Sprintf("%s (step %d) should be before %s (step %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func (h *harness) assertFinalRecord(ctx context.Context, a Assertion) error {
	rec, ok, err := h.svc.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionError{
			Type:     AssertFinalRecord,
			Expected: fmt.Sprintf("record %q", a.ID),
			Actual:   "not found",
		}
	}
	if msgs := matchExpect(ir.RecordMap(rec), a.Expect); len(msgs) > 0 {
		return &AssertionError{
			Type:     AssertFinalRecord,
			Expected: formatValue(a.Expect),
			Actual:   strings.Join(msgs, "; "),
		}
	}
	return nil
}

func (h *harness) assertFinalStats(ctx context.Context, a Assertion) error {
	st, err := h.svc.Stats(ctx)
	if err != nil {
		return err
	}
	if msgs := matchExpect(ir.StatsMap(st), a.Expect); len(msgs) > 0 {
		return &AssertionError{
			Type:     AssertFinalStats,
			Expected: formatValue(a.Expect),
			Actual:   strings.Join(msgs, "; "),
		}
	}
	return nil
}

// matchExpect checks that actual contains every key in expected (subset
// match, recursing into objects). An expected null asserts the key is
// absent. Lists must match element for element.
func matchExpect(actual, expected map[string]any) []string {
	var msgs []string
	matchObject("", actual, expected, &msgs)
	return msgs
}

func matchObject(prefix string, actual, expected map[string]any, msgs *[]string) {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		val, present := actual[k]
		matchValue(prefix+k, val, present, expected[k], msgs)
	}
}

func matchValue(path string, actual any, present bool, expected any, msgs *[]string) {
	if expected == nil {
		if present {
			*msgs = append(*msgs, fmt.Sprintf("%s: expected absent, got %s", path, formatValue(actual)))
		}
		return
	}
	if !present {
		*msgs = append(*msgs, fmt.Sprintf("%s: missing, expected %s", path, formatValue(expected)))
		return
	}

	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			*msgs = append(*msgs, fmt.Sprintf("%s: expected object, got %s", path, formatValue(actual)))
			return
		}
		matchObject(path+".", act, exp, msgs)

	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			*msgs = append(*msgs, fmt.Sprintf("%s: expected %d elements, got %s", path, len(exp), formatValue(actual)))
			return
		}
		for i := range exp {
			matchValue(fmt.Sprintf("%s[%d]", path, i), act[i], true, exp[i], msgs)
		}

	default:
		if !valuesEqual(actual, expected) {
			*msgs = append(*msgs, fmt.Sprintf("%s: expected %s, got %s", path, formatValue(expected), formatValue(actual)))
		}
	}
}

// valuesEqual compares scalars by their canonical encoding, so a YAML int
// matches an int64 and a timestamp string matches a time.Time.
func valuesEqual(actual, expected any) bool {
	a, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := ir.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	return string(a) == string(e)
}

func formatValue(v any) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
