package harness

import "github.com/roach88/certledger/internal/ir"

// Scenario is one ledger script.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Backend     string      `yaml:"backend,omitempty"`
	Algorithm   string      `yaml:"algorithm,omitempty"`
	Steps       []Step      `yaml:"steps"`
	Assertions  []Assertion `yaml:"assertions,omitempty"`
}

// Step invokes one ledger operation.
type Step struct {
	Op string `yaml:"op"`

	// ID is the certificate id for submit, verify, confirm and get. A nil
	// ID on submit asks the harness to generate one.
	ID *string `yaml:"id,omitempty"`

	// Certificate is the submit payload. On verify it supplies the digest
	// when Digest is empty.
	Certificate *ir.CertificateInput `yaml:"certificate,omitempty"`

	Digest string `yaml:"digest,omitempty"`

	// Query is the fragment for find_id, find_hash and search.
	Query string `yaml:"query,omitempty"`

	// Expect is a subset match against the step result.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Operation names.
const (
	OpSubmit   = "submit"
	OpVerify   = "verify"
	OpConfirm  = "confirm"
	OpGet      = "get"
	OpList     = "list"
	OpStats    = "stats"
	OpFindID   = "find_id"
	OpFindHash = "find_hash"
	OpSearch   = "search"
)

// Assertion checks the finished trace or ledger.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Op     string         `yaml:"op,omitempty"`     // trace_count
	Ops    []string       `yaml:"ops,omitempty"`    // trace_order
	Count  int            `yaml:"count,omitempty"`  // trace_count
	ID     string         `yaml:"id,omitempty"`     // final_record
	Expect map[string]any `yaml:"expect,omitempty"` // final_record, final_stats
}

// Assertion types.
const (
	AssertTraceCount  = "trace_count"
	AssertTraceOrder  = "trace_order"
	AssertFinalRecord = "final_record"
	AssertFinalStats  = "final_stats"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Step   int            `json:"step"`
	Op     string         `json:"op"`
	Args   map[string]any `json:"args,omitempty"`
	Result map[string]any `json:"result"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(step int, op string, args, result map[string]any) {
	r.Trace = append(r.Trace, TraceEvent{Step: step, Op: op, Args: args, Result: result})
}
