package store

import (
	"context"
	"fmt"

	"github.com/roach88/chainseal/internal/ledger"
)

// ConservationReport summarizes the live token supply of one policy
// against the live records that claim its authorization.
//
// A record only counts as live when its datum names the policy AND the
// output holds the proof token. A datum alone is just bytes anyone can
// park at the record address; the token is what makes it a record.
type ConservationReport struct {
	Policy       ledger.PolicyID `json:"policy"`
	TokenName    string          `json:"token_name"`
	LiveTokens   int64           `json:"live_tokens"`
	LiveRecords  int64           `json:"live_records"`
	StrayTokens  int64           `json:"stray_tokens"`
	UntaggedRecs int64           `json:"untagged_records"`

	// ForgedRecs counts outputs at the record address whose datum names
	// the policy but which hold no proof token. The mirror of
	// UntaggedRecs: an unbacked claim rather than an unclaimed token.
	ForgedRecs int64 `json:"forged_records"`
}

// Balanced reports whether every live record is backed by exactly one
// token at the record address and no tokens sit elsewhere. Forged
// datums do not unbalance the report: they hold no token, so the
// supply/record equality is intact with or without them.
func (r ConservationReport) Balanced() bool {
	return r.LiveTokens == r.LiveRecords && r.StrayTokens == 0 && r.UntaggedRecs == 0
}

// AuditConservation walks the full live set and counts, for one policy:
// token units held at recordAddress, token-backed records there tagged
// with the policy, token units held anywhere else (stray), outputs at
// the address holding the token without naming the policy (untagged),
// and datums naming the policy without holding the token (forged).
// A balanced ledger has tokens == records, no strays, and no untagged
// holders.
func (s *Store) AuditConservation(ctx context.Context, policy ledger.PolicyID, tokenName, recordAddress string) (ConservationReport, error) {
	report := ConservationReport{Policy: policy, TokenName: tokenName}

	live, err := s.AllLive(ctx)
	if err != nil {
		return report, fmt.Errorf("audit %s: %w", policy, err)
	}

	for _, u := range live {
		qty := u.Output.Value.QuantityOf(policy, tokenName)
		if u.Output.Address != recordAddress {
			report.StrayTokens += qty
			continue
		}
		report.LiveTokens += qty
		claimed := u.Output.Datum != nil && u.Output.Datum.AuthorizingTag == policy
		switch {
		case claimed && qty > 0:
			report.LiveRecords++
		case claimed:
			report.ForgedRecs++
		case qty > 0:
			report.UntaggedRecs++
		}
	}
	return report, nil
}
