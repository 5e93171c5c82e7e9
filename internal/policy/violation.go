package policy

import (
	"errors"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// Code categorizes a validation failure.
type Code string

const (
	// CodeMalformedDatum indicates an expected schema shape is absent
	// or unparseable, or that a successor rewrites an identity field
	// (owner, authorizing tag) that transitions must preserve.
	CodeMalformedDatum Code = "MALFORMED_DATUM"

	// CodeMissingCompanion indicates an expected counterpart is absent:
	// no prior record found, or no successor produced.
	CodeMissingCompanion Code = "MISSING_COMPANION"

	// CodeConservation indicates a proof-token quantity mismatch.
	CodeConservation Code = "CONSERVATION"

	// CodeUnauthorized indicates a required owner signature is missing.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodePayloadRule indicates the successor payload fails the domain
	// transition rule.
	CodePayloadRule Code = "PAYLOAD_RULE"
)

// Violation is the structured rejection a policy returns.
//
// A violation is always fatal to the entire transaction: there is no
// partial acceptance and no recovery inside the verifier. The fields are
// diagnostics for the submitting side; the ledger-level contract remains
// a bare accept/reject.
type Violation struct {
	// Code identifies the failure category.
	Code Code

	// Policy is the ID of the policy that rejected.
	Policy ledger.PolicyID

	// OutPoint names the offending input, when one exists.
	OutPoint *ledger.OutPoint

	// Detail is a human-readable description.
	Detail string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.OutPoint != nil {
		return fmt.Sprintf("%s: %s (policy=%s, input=%s)", v.Code, v.Detail, short(v.Policy), v.OutPoint)
	}
	return fmt.Sprintf("%s: %s (policy=%s)", v.Code, v.Detail, short(v.Policy))
}

// CodeOf extracts the violation code from an error chain.
// Returns the empty code if err is not a Violation.
func CodeOf(err error) Code {
	var v *Violation
	if errors.As(err, &v) {
		return v.Code
	}
	return ""
}

// IsConservation reports whether err is a conservation violation.
func IsConservation(err error) bool {
	return CodeOf(err) == CodeConservation
}

// IsUnauthorized reports whether err is an authorization violation.
func IsUnauthorized(err error) bool {
	return CodeOf(err) == CodeUnauthorized
}

func reject(code Code, policy ledger.PolicyID, format string, args ...any) *Violation {
	return &Violation{
		Code:   code,
		Policy: policy,
		Detail: fmt.Sprintf(format, args...),
	}
}

func rejectInput(code Code, policy ledger.PolicyID, op ledger.OutPoint, format string, args ...any) *Violation {
	return &Violation{
		Code:     code,
		Policy:   policy,
		OutPoint: &op,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// short abbreviates a policy ID for log-friendly error text.
func short(p ledger.PolicyID) string {
	s := string(p)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
