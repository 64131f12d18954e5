// Package harness runs query conformance scenarios.
//
// A scenario pairs a cube definition and a query with the expected
// compiled MDX and, optionally, an engine response to materialize. It
// exercises the same path as a live session, with the engine replaced by a
// recorded cellset.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: sales_by_year
//	description: "Year totals are kept when requested"
//	cube_dir: ../cubes/sales      # CUE package, relative to the scenario
//	cube: Sales                   # optional when the package has one cube
//	capabilities: { branching: false, styling: true }
//	query:
//	  measures: ["Price.SUM"]
//	  rows: ["Date/Year", "Month"]
//	  where:
//	    - { level: Country, value: France }
//	  include_totals: true
//	cellset: ../fixtures/sales_by_year.json
//	assertions:
//	  - type: mdx_contains
//	    text: "Hierarchize(Descendants("
//	  - type: row_count
//	    count: 6
//	  - type: cell
//	    view: captions
//	    row: 0
//	    column: Year
//	    value: Total
//
// # Assertion Types
//
//   - mdx_equals: the compiled query text equals text
//   - mdx_contains: the compiled query text contains text
//   - error_code: compilation or execution failed with code
//   - row_count: the names table has count rows
//   - columns: the names table has exactly these column names
//   - cell: one rendered cell of the names, captions or styles view
//   - totals: the indices of subtotal and grand-total rows
//
// Without a cellset only compile-time assertions can pass; result
// assertions then fail with "no result".
//
// # Deterministic Testing
//
// Query ids come from a sequential generator and durations from a step
// clock, so repeated runs produce identical snapshots for golden files.
package harness
