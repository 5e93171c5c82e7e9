// Package ledger defines the data model for the chainseal ledger:
// multi-asset values, transaction shapes, and the authorized-record datum.
//
// ARCHITECTURE:
//
// The ledger is UTXO-style and append-only. A transaction consumes
// previously committed outputs and produces new ones; nothing is ever
// mutated in place. Mutable logical state is represented as a chain of
// records: each record lives in an output at a designated address,
// alongside exactly one proof token that evidences its lineage.
//
// Determinism rules:
//
// CP-1: Content-addressed identity
// Transaction IDs are SHA-256 over domain-prefixed RFC 8785 canonical
// JSON. The same transaction body always produces the same ID.
//
// CP-2: Strict datum decoding
// Datum bytes are attacker-controllable. Decoding rejects floats, null,
// and unknown fields; a record either matches the schema exactly or the
// datum is malformed.
//
// CP-3: No floats anywhere
// All quantities and payloads are int64. Floats break canonical JSON
// and therefore content addressing.
package ledger
