package ledger

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Credential identifies a party able to authorize a transaction,
// as a hex-encoded hash of its verification key. The surrounding
// runtime verifies signatures; validators only compare credentials.
type Credential string

// PolicyID identifies a minting policy instance, as a hex-encoded
// hash of the policy's parameters. An asset minted under a policy
// carries that policy's ID forever.
type PolicyID string

// AdaPolicy is the reserved policy ID for the base currency.
const AdaPolicy PolicyID = ""

// SealTokenName is the fixed asset name of the proof token.
// Every proof token is uniquely identified by (PolicyID, SealTokenName);
// the name never varies, only the issuing policy does.
const SealTokenName = "seal"

// AssetID uniquely identifies a token class.
type AssetID struct {
	Policy PolicyID `json:"policy"`
	Name   string   `json:"name"`
}

// Value is a multi-asset quantity map: policy ID -> asset name -> quantity.
// Quantities are always int64 (CP-3). A Value never stores zero quantities;
// normalization happens in Add.
type Value map[PolicyID]map[string]int64

// NewValue creates an empty Value.
func NewValue() Value {
	return make(Value)
}

// SingleAsset creates a Value holding qty units of one asset.
func SingleAsset(policy PolicyID, name string, qty int64) Value {
	v := NewValue()
	v.Add(policy, name, qty)
	return v
}

// QuantityOf returns the quantity of the given asset, zero if absent.
func (v Value) QuantityOf(policy PolicyID, name string) int64 {
	names, ok := v[policy]
	if !ok {
		return 0
	}
	return names[name]
}

// Add adds qty units of an asset (qty may be negative).
// Zero totals are removed so that Equal treats "absent" and "zero" alike.
func (v Value) Add(policy PolicyID, name string, qty int64) {
	if qty == 0 {
		return
	}
	names, ok := v[policy]
	if !ok {
		names = make(map[string]int64)
		v[policy] = names
	}
	names[name] += qty
	if names[name] == 0 {
		delete(names, name)
		if len(names) == 0 {
			delete(v, policy)
		}
	}
}

// Merge adds every asset of other into v.
func (v Value) Merge(other Value) {
	for policy, names := range other {
		for name, qty := range names {
			v.Add(policy, name, qty)
		}
	}
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	out := make(Value, len(v))
	for policy, names := range v {
		m := make(map[string]int64, len(names))
		for name, qty := range names {
			m[name] = qty
		}
		out[policy] = m
	}
	return out
}

// Equal reports whether two Values hold identical quantities.
func (v Value) Equal(other Value) bool {
	if len(v) != len(other) {
		return false
	}
	for policy, names := range v {
		otherNames, ok := other[policy]
		if !ok || len(names) != len(otherNames) {
			return false
		}
		for name, qty := range names {
			if otherNames[name] != qty {
				return false
			}
		}
	}
	return true
}

// IsZero reports whether the Value holds no assets.
func (v Value) IsZero() bool {
	return len(v) == 0
}

// Policies returns the policy IDs present, in canonical order.
// Deterministic iteration matters: validators are invoked once per
// minted policy, and invocation order must not depend on map layout.
func (v Value) Policies() []PolicyID {
	policies := make([]PolicyID, 0, len(v))
	for policy := range v {
		policies = append(policies, policy)
	}
	slices.SortFunc(policies, func(a, b PolicyID) int {
		return compareUTF16(string(a), string(b))
	})
	return policies
}

// AssetNames returns the asset names under a policy, in canonical order.
func (v Value) AssetNames(policy PolicyID) []string {
	names := make([]string, 0, len(v[policy]))
	for name := range v[policy] {
		names = append(names, name)
	}
	slices.SortFunc(names, compareUTF16)
	return names
}

// toCanonical renders the Value as nested maps for canonical JSON.
func (v Value) toCanonical() map[string]any {
	out := make(map[string]any, len(v))
	for policy, names := range v {
		m := make(map[string]any, len(names))
		for name, qty := range names {
			m[name] = qty
		}
		out[string(policy)] = m
	}
	return out
}

// valueFromDecoded rebuilds a Value from strictly decoded JSON.
func valueFromDecoded(raw map[string]map[string]int64) (Value, error) {
	v := NewValue()
	for policy, names := range raw {
		for name, qty := range names {
			if qty == 0 {
				return nil, fmt.Errorf("zero quantity for asset %q under policy %q", name, policy)
			}
			v.Add(PolicyID(policy), name, qty)
		}
	}
	return v, nil
}

// compareUTF16 compares strings by UTF-16 code units, the RFC 8785
// canonical key order. Go's native string comparison is UTF-8 byte
// order, which differs for characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
