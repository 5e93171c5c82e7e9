// Package store provides durable storage for the chainseal ledger:
// the committed transaction log, the live UTXO set, and the submission
// verdict history.
//
// The store is the ledger's double-spend arbiter. An output is consumed
// by setting its spent_by column inside the same SQLite transaction that
// inserts the consuming tx and its outputs; a conditional UPDATE
// (WHERE spent_by IS NULL) makes two commits racing for the same output
// structurally impossible. Commits are all-or-nothing: a transaction is
// either fully present, with all its inputs marked spent, or absent.
//
// SQLite runs in WAL mode with a single writer, matching the runtime's
// single-writer loop.
package store
