package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RecordDatum is the typed shape of one authorized record.
//
// Owner may authorize transitions of this record. AuthorizingTag names the
// creation policy that legitimized the record's lineage; it is written once
// at creation and must never change. Payload is the mutable business value,
// here a monotonically incrementing counter.
//
// The datum carries NO inherent trust: anyone can deposit arbitrary bytes
// at the record address. Legitimacy comes solely from the co-located proof
// token whose policy equals AuthorizingTag.
type RecordDatum struct {
	Owner          Credential `json:"owner"`
	AuthorizingTag PolicyID   `json:"authorizing_tag"`
	Payload        int64      `json:"payload"`
}

// toCanonical renders the datum for canonical JSON.
func (d *RecordDatum) toCanonical() map[string]any {
	return map[string]any{
		"owner":           string(d.Owner),
		"authorizing_tag": string(d.AuthorizingTag),
		"payload":         d.Payload,
	}
}

// MarshalText serializes the datum as canonical JSON.
func (d *RecordDatum) MarshalText() (string, error) {
	data, err := MarshalCanonical(d.toCanonical())
	if err != nil {
		return "", fmt.Errorf("marshal datum: %w", err)
	}
	return string(data), nil
}

// DecodeDatum parses datum bytes into a RecordDatum with strict validation
// (CP-2). Unknown fields, missing fields, floats, and null are all rejected:
// datum contents are attacker-controllable and a permissive parser would
// widen the surface a validator has to reason about.
func DecodeDatum(data string) (*RecordDatum, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var raw struct {
		Owner          *string      `json:"owner"`
		AuthorizingTag *string      `json:"authorizing_tag"`
		Payload        *json.Number `json:"payload"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode datum: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode datum: trailing data")
	}

	if raw.Owner == nil || *raw.Owner == "" {
		return nil, fmt.Errorf("decode datum: missing owner")
	}
	if raw.AuthorizingTag == nil || *raw.AuthorizingTag == "" {
		return nil, fmt.Errorf("decode datum: missing authorizing_tag")
	}
	if raw.Payload == nil {
		return nil, fmt.Errorf("decode datum: missing payload")
	}

	payload, err := decodeInt(*raw.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode datum payload: %w", err)
	}

	return &RecordDatum{
		Owner:          Credential(*raw.Owner),
		AuthorizingTag: PolicyID(*raw.AuthorizingTag),
		Payload:        payload,
	}, nil
}

// DecodeValue parses stored canonical JSON back into a Value.
// Same strictness as datum decoding: floats and null are rejected.
func DecodeValue(data string) (Value, error) {
	if data == "" || data == "{}" {
		return NewValue(), nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var raw map[string]map[string]json.Number
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	typed := make(map[string]map[string]int64, len(raw))
	for policy, names := range raw {
		if names == nil {
			return nil, fmt.Errorf("decode value: null asset map under policy %q", policy)
		}
		m := make(map[string]int64, len(names))
		for name, qty := range names {
			n, err := decodeInt(qty)
			if err != nil {
				return nil, fmt.Errorf("decode value %q/%q: %w", policy, name, err)
			}
			m[name] = n
		}
		typed[policy] = m
	}

	v, err := valueFromDecoded(typed)
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// decodeInt converts a json.Number to int64, rejecting floats (CP-3).
func decodeInt(n json.Number) (int64, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return 0, fmt.Errorf("floats are forbidden: %s", s)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("number out of int64 range: %s", s)
	}
	return i, nil
}

// EqualDatum reports whether two datums are field-for-field identical.
func EqualDatum(a, b *RecordDatum) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
