package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// ErrNotFound is returned when an outpoint was never committed.
var ErrNotFound = errors.New("outpoint not found")

// ErrSpent is returned when an outpoint exists but has been consumed.
var ErrSpent = errors.New("outpoint already spent")

// UTXO pairs an outpoint with its output and commit metadata.
type UTXO struct {
	OutPoint   ledger.OutPoint
	Output     ledger.Output
	CreatedSeq int64
}

// Resolve looks up an outpoint in the committed ledger state.
// Returns ErrNotFound for unknown outpoints and ErrSpent (wrapped with
// the consuming tx id) for consumed ones; only live outputs resolve.
func (s *Store) Resolve(ctx context.Context, op ledger.OutPoint) (ledger.Output, error) {
	var (
		address   string
		valueJSON string
		datumJSON *string
		spentBy   *string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT address, value, datum, spent_by
		FROM utxos
		WHERE tx_id = ? AND output_index = ?
	`, op.TxID, op.Index).Scan(&address, &valueJSON, &datumJSON, &spentBy)
	if err == sql.ErrNoRows {
		return ledger.Output{}, fmt.Errorf("resolve %s: %w", op, ErrNotFound)
	}
	if err != nil {
		return ledger.Output{}, fmt.Errorf("resolve %s: %w", op, err)
	}
	if spentBy != nil {
		return ledger.Output{}, fmt.Errorf("resolve %s: consumed by %s: %w", op, *spentBy, ErrSpent)
	}

	return unmarshalOutput(address, valueJSON, datumJSON)
}

// LiveAtAddress returns all live outputs at an address.
// Ordering is deterministic: created_seq ASC, then outpoint.
func (s *Store) LiveAtAddress(ctx context.Context, address string) ([]UTXO, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_id, output_index, address, value, datum, created_seq
		FROM utxos
		WHERE address = ? AND spent_by IS NULL
		ORDER BY created_seq ASC, tx_id COLLATE BINARY ASC, output_index ASC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("live at %q: %w", address, err)
	}
	defer rows.Close()

	utxos, err := scanUTXOs(rows)
	if err != nil {
		return nil, fmt.Errorf("live at %q: %w", address, err)
	}
	return utxos, nil
}

// AllLive returns every live output in the ledger, deterministically ordered.
// Used by the conservation audit, which must see tokens wherever they sit.
func (s *Store) AllLive(ctx context.Context) ([]UTXO, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_id, output_index, address, value, datum, created_seq
		FROM utxos
		WHERE spent_by IS NULL
		ORDER BY created_seq ASC, tx_id COLLATE BINARY ASC, output_index ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("all live: %w", err)
	}
	defer rows.Close()

	utxos, err := scanUTXOs(rows)
	if err != nil {
		return nil, fmt.Errorf("all live: %w", err)
	}
	return utxos, nil
}

func scanUTXOs(rows *sql.Rows) ([]UTXO, error) {
	utxos := []UTXO{}
	for rows.Next() {
		var (
			txID       string
			index      int
			address    string
			valueJSON  string
			datumJSON  *string
			createdSeq int64
		)
		if err := rows.Scan(&txID, &index, &address, &valueJSON, &datumJSON, &createdSeq); err != nil {
			return nil, fmt.Errorf("scan utxo: %w", err)
		}
		out, err := unmarshalOutput(address, valueJSON, datumJSON)
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, UTXO{
			OutPoint:   ledger.OutPoint{TxID: txID, Index: index},
			Output:     out,
			CreatedSeq: createdSeq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate utxos: %w", err)
	}
	return utxos, nil
}

// MaxSeq returns the highest committed sequence number, zero for a fresh
// store. The runtime resumes its logical clock from here.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM txs
			UNION ALL
			SELECT seq FROM verdicts
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// HasTx reports whether a transaction id is already committed.
func (s *Store) HasTx(ctx context.Context, txID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM txs WHERE id = ?
	`, txID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has tx: %w", err)
	}
	return count > 0, nil
}

// Verdicts returns the submission log in order.
func (s *Store) Verdicts(ctx context.Context) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, tx_id, accepted, code, detail, seq
		FROM verdicts
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []Verdict{}
	for rows.Next() {
		var (
			v        Verdict
			accepted int
			code     *string
			detail   *string
		)
		if err := rows.Scan(&v.Token, &v.TxID, &accepted, &code, &detail, &v.Seq); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Accepted = accepted != 0
		if code != nil {
			v.Code = *code
		}
		if detail != nil {
			v.Detail = *detail
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return verdicts, nil
}

// VerdictsForTx returns the verdict history of one transaction id,
// oldest first. Resubmissions of a rejected tx each leave a row.
func (s *Store) VerdictsForTx(ctx context.Context, txID string) ([]Verdict, error) {
	all, err := s.Verdicts(ctx)
	if err != nil {
		return nil, err
	}
	filtered := []Verdict{}
	for _, v := range all {
		if v.TxID == txID {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}
