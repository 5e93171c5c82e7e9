package harness

import (
	"context"

	"github.com/roach88/chainseal/internal/ledger"
	"github.com/roach88/chainseal/internal/policy"
	"github.com/roach88/chainseal/internal/store"
)

// evaluateAssertions checks every final-state assertion against the
// committed ledger. Failures accumulate in the result; assertion
// evaluation never aborts early, so one run reports every mismatch.
func evaluateAssertions(ctx context.Context, result *Result, scenario *Scenario, st *store.Store, creation *policy.CreationPolicy) {
	for i, a := range scenario.Assertions {
		switch a.Type {
		case AssertLiveRecords:
			assertLiveRecords(ctx, result, i, &a, scenario, st)
		case AssertConservation:
			assertConservation(ctx, result, i, &a, scenario, st, creation)
		case AssertPayload:
			assertPayload(ctx, result, i, &a, scenario, st)
		default:
			result.AddError("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
}

// assertLiveRecords checks the count of live outputs at the record
// address that actually carry a datum.
func assertLiveRecords(ctx context.Context, result *Result, index int, a *Assertion, scenario *Scenario, st *store.Store) {
	live, err := st.LiveAtAddress(ctx, scenario.Genesis.RecordAddress)
	if err != nil {
		result.AddError("assertions[%d] live_records: %v", index, err)
		return
	}
	records := 0
	for _, u := range live {
		if u.Output.Datum != nil {
			records++
		}
	}
	if records != a.Count {
		result.AddError("assertions[%d] live_records: got %d, want %d", index, records, a.Count)
	}
}

// assertConservation runs the token/record balance audit.
func assertConservation(ctx context.Context, result *Result, index int, a *Assertion, scenario *Scenario, st *store.Store, creation *policy.CreationPolicy) {
	report, err := st.AuditConservation(ctx, creation.ID(), creation.TokenName, scenario.Genesis.RecordAddress)
	if err != nil {
		result.AddError("assertions[%d] conservation: %v", index, err)
		return
	}
	if report.Balanced() != a.Balanced {
		result.AddError("assertions[%d] conservation: balanced=%v, want %v (tokens=%d records=%d stray=%d)",
			index, report.Balanced(), a.Balanced,
			report.LiveTokens, report.LiveRecords, report.StrayTokens)
	}
}

// assertPayload checks the payload of one live record, selected by the
// store's deterministic order.
func assertPayload(ctx context.Context, result *Result, index int, a *Assertion, scenario *Scenario, st *store.Store) {
	live, err := st.LiveAtAddress(ctx, scenario.Genesis.RecordAddress)
	if err != nil {
		result.AddError("assertions[%d] payload: %v", index, err)
		return
	}
	records := make([]ledger.RecordDatum, 0, len(live))
	for _, u := range live {
		if u.Output.Datum != nil {
			records = append(records, *u.Output.Datum)
		}
	}
	if a.Record >= len(records) {
		result.AddError("assertions[%d] payload: record %d requested but only %d live", index, a.Record, len(records))
		return
	}
	if got := records[a.Record].Payload; got != a.Value {
		result.AddError("assertions[%d] payload: record %d has payload %d, want %d", index, a.Record, got, a.Value)
	}
}
