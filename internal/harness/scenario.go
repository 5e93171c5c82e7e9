package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a genesis configuration,
// a scripted flow of submissions, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Genesis configures the policies under test.
	Genesis Genesis `yaml:"genesis"`

	// Flow contains the scripted submissions with expected verdicts.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final ledger state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Genesis configures the record address and token name the policies are
// parameterized over.
type Genesis struct {
	RecordAddress string `yaml:"record_address"`
	TokenName     string `yaml:"token_name,omitempty"`
}

// Step scripts one submission. Action selects the builder; the knobs
// malform the transaction in controlled ways. A step with no knobs set
// builds a well-formed transaction.
type Step struct {
	// Action is "mint" or "advance".
	Action string `yaml:"action"`

	// Owner is the record owner credential. Defaults to "alice".
	Owner string `yaml:"owner,omitempty"`

	// Records is the number of records to initialize in one mint.
	// Defaults to 1.
	Records int `yaml:"records,omitempty"`

	// MintQuantity overrides the minted token quantity. The surplus
	// over deposited records is parked at the owner's wallet so the
	// transaction still balances; the policy must catch the excess.
	MintQuantity *int64 `yaml:"mint_quantity,omitempty"`

	// Record selects which live record an advance consumes, by the
	// store's deterministic order. Defaults to 0.
	Record int `yaml:"record,omitempty"`

	// Payload overrides the successor payload (mint: the initial
	// payload). Default: 0 for mint, predecessor+1 for advance.
	Payload *int64 `yaml:"payload,omitempty"`

	// Unsigned omits the owner signature.
	Unsigned bool `yaml:"unsigned,omitempty"`

	// DropToken diverts the proof token to the owner's wallet instead
	// of the successor. The transaction still balances.
	DropToken bool `yaml:"drop_token,omitempty"`

	// SkipDatum omits the datum from the minted record.
	SkipDatum bool `yaml:"skip_datum,omitempty"`

	// Tag overrides the authorizing tag written into the datum.
	Tag string `yaml:"tag,omitempty"`

	// Expect specifies the expected verdict. Required.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected verdict of a step.
type Expect struct {
	// Verdict is "accept" or "reject".
	Verdict string `yaml:"verdict"`

	// Code is the expected rejection code. Required when Verdict is
	// "reject", forbidden otherwise.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates the final ledger state.
type Assertion struct {
	// Type is one of live_records, conservation, payload.
	Type string `yaml:"type"`

	// Count is the expected count (live_records).
	Count int `yaml:"count,omitempty"`

	// Balanced is the expected audit verdict (conservation).
	Balanced bool `yaml:"balanced,omitempty"`

	// Record selects a live record by deterministic order (payload).
	Record int `yaml:"record,omitempty"`

	// Value is the expected payload (payload).
	Value int64 `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertLiveRecords  = "live_records"
	AssertConservation = "conservation"
	AssertPayload      = "payload"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Genesis.RecordAddress == "" {
		return fmt.Errorf("genesis.record_address is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single flow step.
func validateStep(index int, step *Step) error {
	switch step.Action {
	case "mint", "advance":
	case "":
		return fmt.Errorf("flow[%d]: action is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", index, step.Action)
	}

	if step.Records < 0 {
		return fmt.Errorf("flow[%d]: records must be non-negative", index)
	}
	if step.Record < 0 {
		return fmt.Errorf("flow[%d]: record must be non-negative", index)
	}

	switch step.Expect.Verdict {
	case "accept":
		if step.Expect.Code != "" {
			return fmt.Errorf("flow[%d].expect: code is forbidden for accept", index)
		}
	case "reject":
		if step.Expect.Code == "" {
			return fmt.Errorf("flow[%d].expect: code is required for reject", index)
		}
	case "":
		return fmt.Errorf("flow[%d].expect: verdict is required", index)
	default:
		return fmt.Errorf("flow[%d].expect: unknown verdict %q", index, step.Expect.Verdict)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertLiveRecords:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertConservation:
		// Balanced defaults to false, which is a legitimate expectation.
	case AssertPayload:
		if a.Record < 0 {
			return fmt.Errorf("assertions[%d]: record must be non-negative", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
