package harness

import (
	"context"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/policy"
	"github.com/roach88/chainseal/internal/runtime"
	"github.com/roach88/chainseal/internal/store"
	"github.com/roach88/chainseal/internal/testutil"
	"github.com/roach88/chainseal/internal/txbuild"
)

// TraceEvent is one step's outcome in the trace.
//
// The trace carries only fields that are identical across runs: step
// number, action, verdict, code, and seq. Tx ids and rejection details
// are deliberately excluded so golden files stay hand-checkable.
type TraceEvent struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Verdict string `json:"verdict"` // "accept" or "reject"
	Code    string `json:"code,omitempty"`
	Seq     int64  `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: every expect clause and
	// every assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a fresh logical
// clock and sequential submission tokens. The same scenario always
// produces byte-identical traces.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Instantiate the policies from the genesis block
// 3. Build and apply each flow step, validating its verdict
// 4. Evaluate final-state assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	tokenName := scenario.Genesis.TokenName
	if tokenName == "" {
		tokenName = ledger.SealTokenName
	}
	creation, err := policy.NewCreationPolicy(scenario.Genesis.RecordAddress, tokenName)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	transition, err := policy.NewTransitionPolicy(scenario.Genesis.RecordAddress, tokenName)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	rt := runtime.New(st, creation, transition, testutil.NewSequentialTokenGenerator("sub"))
	b := &txbuild.Builder{
		RecordAddress: scenario.Genesis.RecordAddress,
		TokenName:     tokenName,
		PolicyID:      creation.ID(),
		Store:         st,
	}

	ctx := context.Background()
	result := NewResult()

	for i := range scenario.Flow {
		step := &scenario.Flow[i]

		tx, err := build(ctx, b, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}

		verdict, err := rt.Apply(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}

		event := TraceEvent{
			Step:    i + 1,
			Action:  step.Action,
			Seq:     verdict.Seq,
			Verdict: "reject",
			Code:    verdict.Code,
		}
		if verdict.Accepted {
			event.Verdict = "accept"
			event.Code = ""
		}
		result.Trace = append(result.Trace, event)

		checkExpect(result, i, step, verdict)
	}

	evaluateAssertions(ctx, result, scenario, st, creation)

	return result, nil
}

// checkExpect validates one step's verdict against its expect clause.
func checkExpect(result *Result, index int, step *Step, verdict store.Verdict) {
	switch step.Expect.Verdict {
	case "accept":
		if !verdict.Accepted {
			result.AddError("flow[%d] %s: expected accept, got reject %s (%s)",
				index, step.Action, verdict.Code, verdict.Detail)
		}
	case "reject":
		if verdict.Accepted {
			result.AddError("flow[%d] %s: expected reject %s, got accept",
				index, step.Action, step.Expect.Code)
		} else if verdict.Code != step.Expect.Code {
			result.AddError("flow[%d] %s: expected reject %s, got reject %s (%s)",
				index, step.Action, step.Expect.Code, verdict.Code, verdict.Detail)
		}
	}
}
