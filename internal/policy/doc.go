// Package policy implements the authorized state-transition verifier:
// the creation policy that gates proof-token mints, and the transition
// policy that gates mutation of existing records.
//
// Both policies are pure predicates. Each invocation sees an immutable
// snapshot of one candidate transaction and returns nil (accept) or a
// *Violation (reject); there is no other channel, no retry, and no state
// between invocations. The runtime commits a transaction only if every
// invoked policy accepts, so any single violation rejects the whole
// transaction atomically.
//
// The load-bearing invariant: a record is legitimate if and only if it is
// co-located with exactly one proof token whose issuing policy equals the
// record's authorizing tag. The datum itself is attacker-controllable
// data; the token is the only evidence of lineage. The creation policy
// makes tokens scarce (minted 1:1 with correctly initialized records) and
// the transition policy conserves them (moved 1:1, never created or
// destroyed), so forged lineage is structurally unrepresentable rather
// than merely checked.
//
// Identity threading: the transition policy does not hard-code which
// creation policy it trusts. The creation policy writes its own ID into
// each record's authorizing tag, and the transition policy verifies the
// tag against the tokens actually present. This breaks what would
// otherwise be a circular parameterization between the two policies.
package policy
