package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pivotql/internal/qerr"
	"github.com/roach88/pivotql/internal/testutil"
)

func TestSpecBuild(t *testing.T) {
	c := testutil.SalesCube()

	var specs []Spec
	require.NoError(t, yaml.Unmarshal([]byte(`
- {kind: level, level: Geography/City/Country, value: France}
- {kind: isin, level: Currency, values: [EUR, USD]}
- {kind: hierarchy_isin, hierarchy: Date/Date, paths: [["2020", Jan]]}
- {kind: measure, measure: Price.SUM, op: ">", value: 100}
- {level: "[Product].[Product].[Category]", op: "!=", value: Tools}
`), &specs))

	m, err := BuildAll(c, specs)
	require.NoError(t, err)

	require.Len(t, m.Levels, 2)
	assert.Equal(t, testutil.CountryLevel, m.Levels[0].Level)
	assert.Equal(t, "France", m.Levels[0].Value)
	assert.Equal(t, OpNe, m.Levels[1].Op)
	assert.Equal(t, testutil.CategoryLevel, m.Levels[1].Level)

	require.Len(t, m.LevelIsIns, 1)
	assert.Equal(t, testutil.CurrencyLevel, m.LevelIsIns[0].Level)
	assert.Equal(t, []any{"EUR", "USD"}, m.LevelIsIns[0].Values)

	require.Len(t, m.HierarchyIsIns, 1)
	assert.Equal(t, [][]any{{"2020", "Jan"}}, m.HierarchyIsIns[0].Paths)

	require.Len(t, m.Measures, 1)
	assert.Equal(t, OpGt, m.Measures[0].Op)
	assert.Equal(t, 100, m.Measures[0].Value)
}

func TestSpecBuildErrors(t *testing.T) {
	c := testutil.SalesCube()

	tests := []struct {
		name  string
		spec  Spec
		check func(error) bool
	}{
		{"unknown kind", Spec{Kind: "regex"}, qerr.IsInvalidArgument},
		{"unknown hierarchy", Spec{Kind: KindHierarchyIsIn, Hierarchy: "Week", Paths: [][]any{{"1"}}}, qerr.IsSchemaLookupFailure},
		{"unknown level", Spec{Kind: KindLevel, Level: "Week", Value: "x"}, qerr.IsSchemaLookupFailure},
		{"unknown measure", Spec{Kind: KindMeasure, Measure: "Nope", Op: ">", Value: 1}, qerr.IsSchemaLookupFailure},
		{"bad operator", Spec{Kind: KindLevel, Level: "Country", Op: "~", Value: "x"}, qerr.IsInvalidArgument},
		{"null isin", Spec{Kind: KindLevelIsIn, Level: "Currency", Values: []any{nil}}, qerr.IsInvalidArgument},
		{"long path", Spec{Kind: KindHierarchyIsIn, Hierarchy: "Currency", Paths: [][]any{{"EUR", "x"}}}, qerr.IsInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAll(c, []Spec{tt.spec})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, "0", detail(err, "condition"))
		})
	}
}

func detail(err error, key string) string {
	var qe *qerr.Error
	if !errors.As(err, &qe) {
		return ""
	}
	return qe.Details[key]
}
