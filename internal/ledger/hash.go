package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity (CP-1).
// Version suffix enables future algorithm migration.
const (
	DomainTx     = "chainseal/tx/v1"
	DomainPolicy = "chainseal/policy/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalTxCanonical serializes a transaction body as canonical JSON.
// This is the form that gets hashed for the tx ID and persisted in the
// transaction log.
func MarshalTxCanonical(tx *Tx) ([]byte, error) {
	body, err := tx.toCanonical()
	if err != nil {
		return nil, fmt.Errorf("marshal tx: %w", err)
	}
	canonical, err := MarshalCanonical(body)
	if err != nil {
		return nil, fmt.Errorf("marshal tx: %w", err)
	}
	return canonical, nil
}

// TxID computes the content-addressed ID of a transaction body.
// Stable across restarts and resubmissions given the same body.
func TxID(tx *Tx) (string, error) {
	canonical, err := MarshalTxCanonical(tx)
	if err != nil {
		return "", fmt.Errorf("TxID: %w", err)
	}
	return hashWithDomain(DomainTx, canonical), nil
}

// DerivePolicyID computes the identity of a creation policy instance from
// its parameters. Two policies guarding the same record address with the
// same token name are the same policy; there is nothing else to them.
func DerivePolicyID(recordAddress, tokenName string) (PolicyID, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"record_address": recordAddress,
		"token_name":     tokenName,
	})
	if err != nil {
		return "", fmt.Errorf("DerivePolicyID: failed to marshal: %w", err)
	}
	return PolicyID(hashWithDomain(DomainPolicy, canonical)), nil
}

// MustTxID is like TxID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTxID(tx *Tx) string {
	id, err := TxID(tx)
	if err != nil {
		panic(err)
	}
	return id
}

// MustDerivePolicyID is like DerivePolicyID but panics on error.
func MustDerivePolicyID(recordAddress, tokenName string) PolicyID {
	id, err := DerivePolicyID(recordAddress, tokenName)
	if err != nil {
		panic(err)
	}
	return id
}
