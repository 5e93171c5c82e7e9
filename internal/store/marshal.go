package store

import (
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// marshalValue converts a Value to canonical JSON TEXT for storage.
func marshalValue(v ledger.Value) (string, error) {
	if v == nil {
		v = ledger.NewValue()
	}
	data, err := ledger.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// marshalDatum converts an optional datum to canonical JSON TEXT.
// Returns ("", false) for outputs without a datum; the column is NULL.
func marshalDatum(d *ledger.RecordDatum) (string, bool, error) {
	if d == nil {
		return "", false, nil
	}
	text, err := d.MarshalText()
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// unmarshalOutput rebuilds an Output from stored columns.
// Strict decoding throughout: the store only ever holds canonical JSON
// this code wrote, so any parse failure is corruption, not input error.
func unmarshalOutput(address, valueJSON string, datumJSON *string) (ledger.Output, error) {
	value, err := ledger.DecodeValue(valueJSON)
	if err != nil {
		return ledger.Output{}, fmt.Errorf("unmarshal output value: %w", err)
	}

	out := ledger.Output{Address: address, Value: value}
	if datumJSON != nil {
		datum, err := ledger.DecodeDatum(*datumJSON)
		if err != nil {
			return ledger.Output{}, fmt.Errorf("unmarshal output datum: %w", err)
		}
		out.Datum = datum
	}
	return out, nil
}
