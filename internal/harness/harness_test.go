package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pivotql/internal/qerr"
	"github.com/roach88/pivotql/internal/session"
)

func scenarioFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	return files
}

func salesScenario(query session.Request, cellsetFile string, assertions ...Assertion) *Scenario {
	s := &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		CubeDir:     "testdata/cubes/sales",
		Query:       query,
		Assertions:  assertions,
	}
	if cellsetFile != "" {
		s.Cellset = filepath.Join("testdata/fixtures", cellsetFile)
	}
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			res, err := Run(s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
			assert.Empty(t, res.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/price_by_month_totals.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first.Snapshot(s.Name), second.Snapshot(s.Name))
}

func TestRun_CompileOnly(t *testing.T) {
	res, err := Run(salesScenario(session.Request{Rows: []string{"Year"}}, "",
		Assertion{Type: AssertMDXContains, Text: "[Date].[Date].[Year].Members"},
		Assertion{Type: AssertRowCount, Count: 0},
	))
	require.NoError(t, err)
	assert.NotEmpty(t, res.MDX)
	assert.Nil(t, res.Output)
	assert.NoError(t, res.Err)

	require.Len(t, res.Errors, 1, "result assertions need a cellset")
	assert.Contains(t, res.Errors[0], "no result (scenario has no cellset)")
	assert.False(t, res.Pass)
}

func TestRun_FailedAssertions(t *testing.T) {
	res, err := Run(salesScenario(
		session.Request{Measures: []string{"Price.SUM"}, Rows: []string{"Month"}, IncludeTotals: true},
		"price_by_month.json",
		Assertion{Type: AssertMDXEquals, Text: "SELECT 1"},
		Assertion{Type: AssertRowCount, Count: 3},
		Assertion{Type: AssertColumns, Columns: []string{"Month"}},
		Assertion{Type: AssertCell, View: ViewNames, Row: 9, Column: "Year", Value: "2019"},
		Assertion{Type: AssertCell, View: ViewNames, Row: 0, Column: "Week", Value: ""},
		Assertion{Type: AssertCell, View: ViewStyles, Row: 0, Column: "Year", Value: ""},
		Assertion{Type: AssertTotals, Rows: []int{0}},
		Assertion{Type: AssertErrorCode, Code: "MALFORMED_CELLSET"},
	))
	require.NoError(t, err)
	assert.False(t, res.Pass)

	want := []string{
		"Assertion failed: mdx_equals",
		"Expected: 3 rows",
		"Expected: columns [Month]",
		"only 6 rows",
		`no column "Week"`,
		"styles view unavailable",
		"total rows [0 1 4]",
		"no error",
	}
	require.Len(t, res.Errors, len(want))
	for i, w := range want {
		assert.Contains(t, res.Errors[i], w)
	}
}

func TestRun_QueryErrors(t *testing.T) {
	res, err := Run(salesScenario(session.Request{Rows: []string{"Planet"}}, "",
		Assertion{Type: AssertErrorCode, Code: string(qerr.CodeSchemaLookupFailure)},
	))
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	assert.Empty(t, res.MDX)

	res, err = Run(salesScenario(session.Request{Scenario: "stress"}, "",
		Assertion{Type: AssertErrorCode, Code: string(qerr.CodeUnsupportedCondition)},
	))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "error INVALID_ARGUMENT", "branching is not enabled")
}

func TestRun_BadCube(t *testing.T) {
	s := salesScenario(session.Request{}, "", Assertion{Type: AssertRowCount})
	s.CubeDir = t.TempDir()
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load cube")

	s = salesScenario(session.Request{}, "", Assertion{Type: AssertRowCount})
	s.Cube = "Risk"
	_, err = Run(s)
	require.Error(t, err)
	assert.True(t, qerr.IsSchemaLookupFailure(err))
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Type: "row_count", Expected: "3 rows", Actual: "2 rows", MDX: "SELECT x"}
	assert.Equal(t, "Assertion failed: row_count\n  Expected: 3 rows\n  Actual: 2 rows\n\nQuery:\n  SELECT x\n", err.Error())
}
