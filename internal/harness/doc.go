// Package harness runs conformance scenarios: a query compiled against a
// CUE schema, executed against fixture data, and checked by assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: adults_by_name
//	description: "What this scenario validates"
//	specs:
//	  - ../specs/sample.cue      # table blocks, optionally query blocks
//	fixture: sample              # the store's embedded sample data
//	setup:
//	  - "INSERT INTO people (id, name, age) VALUES (5, 'Elmo', 3)"
//	query:                       # inline query document...
//	  table: people
//	  where: {age.gt: 30}
//	query_ref: adults            # ...or a query block from specs
//	assertions:
//	  - type: sql
//	    sql: 'SELECT ...'
//	  - type: rows
//	    rows: [{name: Bert}, {name: Ernie}]
//
// # Assertion Types
//
//   - sql: the rendered statement
//   - params: the bound parameters
//   - row_count, rows, contains_row: the result set (subset match per row)
//   - warning: a portability warning of the compiled statement
//   - error: the query fails to compile or run
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite database. Run IDs are UUIDv7 by
// default; golden tests use a fixed generator so snapshots are
// byte-identical across runs. Snapshots live in testdata/golden.
package harness
