// Package runtime is the single-writer submission loop around the ledger.
//
// The runtime receives candidate transactions, resolves their inputs
// against the committed UTXO set, invokes the authorizing policies, and
// either commits the transaction atomically or records the rejection.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// All evaluation and all store mutation happen in one goroutine. This
// ensures:
// - Deterministic verdict order for a given submission order
// - No torn reads between input resolution and commit
// - Simple reasoning about double-spend arbitration
//
// Submission Flow:
// 1. Submit() enqueues the tx with a reply channel (thread-safe)
// 2. Run() dequeues one submission at a time
// 3. Apply() resolves inputs, runs policies, commits or records
// 4. The verdict is delivered on the reply channel
//
// Runtime-level rejections (unknown input, double spend, imbalance) are
// decided before any policy runs: policies are pure predicates and must
// never see an unresolvable transaction.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every verdict is stamped with a monotonic seq from Clock.Next().
// NEVER use wall-clock timestamps for ordering.
//
// Deterministic Scheduling:
// Minted policies are invoked in canonical policy order, record inputs
// in tx input order. No randomness, no concurrency in evaluation.
package runtime
