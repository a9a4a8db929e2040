// Package harness provides conformance testing for field resolution.
//
// The harness loads YAML scenarios, resolves each scenario's query against
// its mapping, runtime fields and discoverable fields, and checks the result
// against the scenario's expectations.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	mapping:
//	  status: {type: keyword}
//	  buyer: {type: alias, path: customer.name}
//	runtime_fields:
//	  - {name: fullName, type: keyword}
//	discoverable:
//	  Nickname: {name: nickname, type: keyword}
//	disable_discovery: false
//	parallelism: 1
//	query:
//	  group:
//	    children:
//	      - term: {field: Status, value: active}
//	expect:
//	  rewrites:
//	    - {original: Status, field: status}
//	  discovery_calls: {Nickname: 1}
//	  runtime_fields: [fullName, nickname]
//	  error: "substring of the expected error"
//
// discoverable is keyed by the exact spelling a query uses; each request is
// counted so scenarios can assert memoization. Omitted expect keys are not
// checked.
//
// # Golden Files
//
// RunWithGolden renders the resolved tree, rewrites, discovery calls and
// session counters as text and compares them to
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
