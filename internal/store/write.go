package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// Verdict is one row of the submission log: the outcome of evaluating a
// candidate transaction, accepted or not.
type Verdict struct {
	Token    string `json:"token"` // submission correlation token
	TxID     string `json:"tx_id"`
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"` // rejection code, empty on accept
	Detail   string `json:"detail,omitempty"`
	Seq      int64  `json:"seq"`
}

// CommitTx atomically applies an accepted transaction: the tx row, the
// spend of every input, the creation of every output, and the accepting
// verdict all land in one SQLite transaction, or none of them do.
//
// The conditional spend UPDATE (WHERE spent_by IS NULL) is the ledger's
// double-spend arbitration: if another commit consumed an input first,
// zero rows are affected and the whole commit rolls back.
func (s *Store) CommitTx(ctx context.Context, tx *ledger.Tx, txID string, verdict Verdict) error {
	body, err := ledger.MarshalTxCanonical(tx)
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit tx: begin: %w", err)
	}
	defer dbtx.Rollback() // No-op if committed

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO txs (id, seq, body, n_inputs, n_outputs)
		VALUES (?, ?, ?, ?, ?)
	`, txID, verdict.Seq, string(body), len(tx.Inputs), len(tx.Outputs))
	if err != nil {
		return fmt.Errorf("commit tx: insert tx: %w", err)
	}

	for _, in := range tx.Inputs {
		res, err := dbtx.ExecContext(ctx, `
			UPDATE utxos SET spent_by = ?
			WHERE tx_id = ? AND output_index = ? AND spent_by IS NULL
		`, txID, in.OutPoint.TxID, in.OutPoint.Index)
		if err != nil {
			return fmt.Errorf("commit tx: spend %s: %w", in.OutPoint, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("commit tx: spend %s: %w", in.OutPoint, err)
		}
		if n != 1 {
			return fmt.Errorf("commit tx: input %s is not live", in.OutPoint)
		}
	}

	for i, out := range tx.Outputs {
		valueJSON, err := marshalValue(out.Value)
		if err != nil {
			return fmt.Errorf("commit tx: output %d: %w", i, err)
		}
		datumJSON, hasDatum, err := marshalDatum(out.Datum)
		if err != nil {
			return fmt.Errorf("commit tx: output %d: %w", i, err)
		}

		var datumArg any
		if hasDatum {
			datumArg = datumJSON
		}
		_, err = dbtx.ExecContext(ctx, `
			INSERT INTO utxos (tx_id, output_index, address, value, datum, created_seq)
			VALUES (?, ?, ?, ?, ?, ?)
		`, txID, i, out.Address, valueJSON, datumArg, verdict.Seq)
		if err != nil {
			return fmt.Errorf("commit tx: insert output %d: %w", i, err)
		}
	}

	if err := insertVerdict(ctx, dbtx, verdict); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit tx: commit: %w", err)
	}

	return nil
}

// RecordVerdict appends a rejection (or standalone verdict) to the
// submission log without touching ledger state.
func (s *Store) RecordVerdict(ctx context.Context, verdict Verdict) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record verdict: begin: %w", err)
	}
	defer dbtx.Rollback()

	if err := insertVerdict(ctx, dbtx, verdict); err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("record verdict: commit: %w", err)
	}
	return nil
}

func insertVerdict(ctx context.Context, dbtx *sql.Tx, verdict Verdict) error {
	accepted := 0
	if verdict.Accepted {
		accepted = 1
	}

	var code, detail any
	if verdict.Code != "" {
		code = verdict.Code
	}
	if verdict.Detail != "" {
		detail = verdict.Detail
	}

	_, err := dbtx.ExecContext(ctx, `
		INSERT INTO verdicts (token, tx_id, accepted, code, detail, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, verdict.Token, verdict.TxID, accepted, code, detail, verdict.Seq)
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}
