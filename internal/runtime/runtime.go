package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/policy"
	"github.com/roach88/chainseal/internal/store"
)

// Runtime-level rejection codes. These fire before any policy runs;
// policies never see a transaction the ledger itself cannot resolve.
const (
	// CodeEmptyTx rejects a transaction with nothing to do.
	CodeEmptyTx = "EMPTY_TX"

	// CodeDuplicateTx rejects a resubmission of an already committed tx.
	CodeDuplicateTx = "DUPLICATE_TX"

	// CodeDuplicateInput rejects a tx naming the same outpoint twice.
	CodeDuplicateInput = "DUPLICATE_INPUT"

	// CodeUnknownInput rejects a tx consuming an outpoint that was
	// never committed.
	CodeUnknownInput = "UNKNOWN_INPUT"

	// CodeDoubleSpend rejects a tx consuming an already spent outpoint.
	CodeDoubleSpend = "DOUBLE_SPEND"

	// CodeImbalance rejects a tx whose outputs do not equal its inputs
	// plus its mint. Without this check a token could appear from or
	// vanish into thin air regardless of what the policies verify.
	CodeImbalance = "IMBALANCE"

	// CodeUnknownPolicy rejects a mint under a policy the verifier does
	// not host.
	CodeUnknownPolicy = "UNKNOWN_POLICY"
)

// Runtime is the single-writer verification loop.
//
// CRITICAL: All evaluation and store mutation happen in the goroutine
// running Run() (or, for direct callers, the goroutine calling Apply;
// never both concurrently).
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Apply(): single-writer only; Submit is the concurrent entry point
type Runtime struct {
	store      *store.Store
	clock      *Clock
	queue      *submitQueue
	tokens     TokenGenerator
	creation   *policy.CreationPolicy
	transition *policy.TransitionPolicy
}

// New creates a Runtime hosting one creation policy and one transition
// policy over the same record address.
func New(s *store.Store, creation *policy.CreationPolicy, transition *policy.TransitionPolicy, tokens TokenGenerator) *Runtime {
	return NewWithClock(s, creation, transition, tokens, NewClock())
}

// NewWithClock creates a Runtime with a pre-positioned clock.
// Used when reopening a store: seed the clock from store.MaxSeq so
// sequence numbers continue across restarts.
func NewWithClock(s *store.Store, creation *policy.CreationPolicy, transition *policy.TransitionPolicy, tokens TokenGenerator, clock *Clock) *Runtime {
	return &Runtime{
		store:      s,
		clock:      clock,
		queue:      newSubmitQueue(),
		tokens:     tokens,
		creation:   creation,
		transition: transition,
	}
}

// PolicyID returns the identity of the hosted creation policy.
func (r *Runtime) PolicyID() ledger.PolicyID {
	return r.creation.ID()
}

// Submit enqueues a candidate transaction and waits for its verdict.
// Thread-safe: may be called from any goroutine while Run is active.
//
// A rejection is a verdict, not an error; the error return is reserved
// for infrastructure failures and shutdown.
func (r *Runtime) Submit(ctx context.Context, tx *ledger.Tx) (store.Verdict, error) {
	sub := submission{tx: tx, reply: make(chan result, 1)}
	if !r.queue.Enqueue(sub) {
		return store.Verdict{}, errors.New("runtime stopped")
	}

	select {
	case <-ctx.Done():
		return store.Verdict{}, ctx.Err()
	case res := <-sub.reply:
		return res.verdict, res.err
	}
}

// Run starts the single-writer verification loop.
// Blocks until the context is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (r *Runtime) Run(ctx context.Context) error {
	slog.Info("runtime starting", "policy", r.creation.ID())

	for {
		sub, ok := r.queue.TryDequeue()
		if ok {
			verdict, err := r.Apply(ctx, sub.tx)
			if err != nil {
				slog.Error("apply failed", "error", err)
			}
			sub.reply <- result{verdict: verdict, err: err}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("runtime stopping: context cancelled")
			r.queue.Close()
			r.drainPending()
			return ctx.Err()

		case <-r.queue.Wait():
			// Signal received, or signal channel closed by Stop().
			if r.queue.Len() == 0 {
				slog.Info("runtime stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the runtime.
// Closes the queue, which causes Run() to return once drained.
func (r *Runtime) Stop() {
	r.queue.Close()
}

// drainPending fails every submission still queued at shutdown so no
// Submit caller is left waiting on a reply that will never come.
func (r *Runtime) drainPending() {
	for {
		sub, ok := r.queue.TryDequeue()
		if !ok {
			return
		}
		sub.reply <- result{err: errors.New("runtime stopped")}
	}
}

// Apply evaluates one candidate transaction against the committed state
// and either commits it or records the rejection. Every call consumes
// one clock tick and leaves exactly one row in the submission log.
//
// CRITICAL: single-writer only. Concurrent callers must go through
// Submit.
func (r *Runtime) Apply(ctx context.Context, tx *ledger.Tx) (store.Verdict, error) {
	seq := r.clock.Next()
	token := r.tokens.Generate()

	txID, err := ledger.TxID(tx)
	if err != nil {
		return store.Verdict{}, fmt.Errorf("apply: %w", err)
	}

	log := slog.With("token", token, "tx", short(txID), "seq", seq)
	log.Debug("evaluating submission",
		"inputs", len(tx.Inputs),
		"outputs", len(tx.Outputs),
	)

	verdict := store.Verdict{Token: token, TxID: txID, Seq: seq}

	code, detail, err := r.evaluate(ctx, tx, txID)
	if err != nil {
		return store.Verdict{}, fmt.Errorf("apply %s: %w", short(txID), err)
	}

	if code != "" {
		verdict.Code = code
		verdict.Detail = detail
		if err := r.store.RecordVerdict(ctx, verdict); err != nil {
			return store.Verdict{}, fmt.Errorf("apply %s: %w", short(txID), err)
		}
		log.Info("rejected", "code", code, "detail", detail)
		return verdict, nil
	}

	verdict.Accepted = true
	if err := r.store.CommitTx(ctx, tx, txID, verdict); err != nil {
		return store.Verdict{}, fmt.Errorf("apply %s: %w", short(txID), err)
	}
	log.Info("committed")
	return verdict, nil
}

// evaluate runs the full check sequence. A non-empty code is a
// rejection; an error is an infrastructure failure.
//
// Order matters for verdict stability: shape, duplication, resolution,
// balance, then policies. Each stage only runs on input the previous
// stage validated.
func (r *Runtime) evaluate(ctx context.Context, tx *ledger.Tx, txID string) (code, detail string, err error) {
	if len(tx.Inputs) == 0 && len(tx.Outputs) == 0 && tx.Mint.IsZero() {
		return CodeEmptyTx, "transaction has no inputs, outputs, or mint", nil
	}

	committed, err := r.store.HasTx(ctx, txID)
	if err != nil {
		return "", "", err
	}
	if committed {
		return CodeDuplicateTx, fmt.Sprintf("tx %s is already committed", short(txID)), nil
	}

	seen := make(map[ledger.OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in.OutPoint]; dup {
			return CodeDuplicateInput, fmt.Sprintf("input %s named twice", in.OutPoint), nil
		}
		seen[in.OutPoint] = struct{}{}
	}

	// Resolve every input before any policy sees the tx. Double-spend
	// arbitration happens here, against committed state, inside the
	// single-writer loop.
	for i := range tx.Inputs {
		out, err := r.store.Resolve(ctx, tx.Inputs[i].OutPoint)
		if errors.Is(err, store.ErrNotFound) {
			return CodeUnknownInput, fmt.Sprintf("input %s does not exist", tx.Inputs[i].OutPoint), nil
		}
		if errors.Is(err, store.ErrSpent) {
			return CodeDoubleSpend, fmt.Sprintf("input %s is already spent", tx.Inputs[i].OutPoint), nil
		}
		if err != nil {
			return "", "", err
		}
		tx.Inputs[i].Resolved = &out
	}

	if code, detail := checkBalance(tx); code != "" {
		return code, detail, nil
	}

	// Creation policy: once per minted policy ID, in canonical order.
	for _, pid := range tx.Mint.Policies() {
		if pid != r.creation.ID() {
			return CodeUnknownPolicy, fmt.Sprintf("no policy hosted for %s", shortPolicy(pid)), nil
		}
		vctx := ledger.Context{Tx: tx, Purpose: ledger.Minting{Policy: pid}}
		if err := r.creation.Verify(vctx); err != nil {
			return verdictFromPolicy(err)
		}
	}

	// Transition policy: once per consumed record-address input, in
	// input order.
	for i := range tx.Inputs {
		if tx.Inputs[i].Resolved.Address != r.transition.RecordAddress {
			continue
		}
		vctx := ledger.Context{Tx: tx, Purpose: ledger.Spending{OutPoint: tx.Inputs[i].OutPoint}}
		if err := r.transition.Verify(vctx); err != nil {
			return verdictFromPolicy(err)
		}
	}

	return "", "", nil
}

// checkBalance verifies value conservation at the transaction level:
// everything consumed plus everything minted equals everything produced.
// Policies verify token placement; this verifies token arithmetic.
func checkBalance(tx *ledger.Tx) (code, detail string) {
	in := ledger.NewValue()
	for i := range tx.Inputs {
		in.Merge(tx.Inputs[i].Resolved.Value)
	}
	in.Merge(tx.Mint)

	out := ledger.NewValue()
	for i := range tx.Outputs {
		out.Merge(tx.Outputs[i].Value)
	}

	if !in.Equal(out) {
		return CodeImbalance, "outputs do not equal inputs plus mint"
	}
	return "", ""
}

// verdictFromPolicy converts a policy violation into a verdict code.
// A policy returning a non-Violation error is a bug, surfaced as an
// infrastructure failure rather than silently coerced to a rejection.
func verdictFromPolicy(err error) (string, string, error) {
	code := policy.CodeOf(err)
	if code == "" {
		return "", "", fmt.Errorf("policy returned non-violation error: %w", err)
	}
	return string(code), err.Error(), nil
}

// short abbreviates a tx id for log lines.
func short(txID string) string {
	if len(txID) > 12 {
		return txID[:12]
	}
	return txID
}

func shortPolicy(p ledger.PolicyID) string {
	return short(string(p))
}
