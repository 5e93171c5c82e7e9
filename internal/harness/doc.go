// Package harness provides conformance testing for the chainseal verifier.
//
// The harness loads YAML scenarios, drives the runtime through a scripted
// sequence of mints and advances, and validates the verdicts and final
// ledger state as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	genesis:
//	  record_address: addr_records
//	  token_name: seal
//	flow:
//	  - action: mint
//	    owner: alice
//	    expect:
//	      verdict: accept
//	  - action: advance
//	    expect:
//	      verdict: reject
//	      code: PAYLOAD_RULE
//	assertions:
//	  - type: live_records
//	    count: 1
//
// Flow steps carry malformation knobs (mint_quantity, unsigned,
// drop_token, payload) to script the attacks the policies must reject.
// A step without knobs builds a well-formed transaction.
//
// # Assertion Types
//
//   - live_records: count of live records at the record address
//   - conservation: the token/record balance audit verdict
//   - payload: the payload of one live record (by deterministic order)
//
// # Deterministic Testing
//
// All scenarios execute with a fresh in-memory SQLite database, a fresh
// logical clock, and sequential submission tokens. This ensures identical
// traces across runs for golden file comparison.
package harness
