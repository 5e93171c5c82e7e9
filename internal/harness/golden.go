package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/chainseal/internal/ledger"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Serialized as canonical JSON for deterministic byte comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
}

// toCanonicalMap converts a TraceSnapshot to nested maps for canonical
// JSON serialization, dropping empty optional fields.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":    event.Step,
			"action":  event.Action,
			"verdict": event.Verdict,
			"seq":     event.Seq,
		}
		if event.Code != "" {
			eventMap["code"] = event.Code
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected verdict
// sequences. A scenario that fails its own expect clauses still gets
// its trace compared; the caller checks result.Pass separately.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}
	traceJSON, err := ledger.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
