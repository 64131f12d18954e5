package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

var (
	country  = cube.LevelKey{Dimension: "Geography", Hierarchy: "City", Level: "Country"}
	city     = cube.LevelKey{Dimension: "Geography", Hierarchy: "City", Level: "City"}
	currency = cube.LevelKey{Dimension: "Currency", Hierarchy: "Currency", Level: "Currency"}
)

func geography() *cube.Hierarchy {
	return &cube.Hierarchy{
		Dimension: "Geography",
		Name:      "City",
		Levels:    []*cube.Level{{Name: "Country"}, {Name: "City"}},
	}
}

func TestLevelCompareNullOperators(t *testing.T) {
	tests := []struct {
		op      Op
		wantErr bool
	}{
		{OpEq, false},
		{OpNe, false},
		{OpLt, true},
		{OpLe, true},
		{OpGt, true},
		{OpGe, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			c, err := LevelCompare(country, tt.op, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, qerr.IsInvalidArgument(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, c.IsNullCheck())
		})
	}
}

func TestLevelCompareUnknownOperator(t *testing.T) {
	_, err := LevelCompare(country, Op("~"), "x")
	assert.True(t, qerr.IsInvalidArgument(err))
}

func TestLevelIsIn(t *testing.T) {
	c, err := LevelIsIn(currency, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, []any{"EUR", "USD"}, c.Values)

	_, err = LevelIsIn(currency, "EUR", nil)
	assert.True(t, qerr.IsInvalidArgument(err), "null placeholder")

	_, err = LevelIsIn(currency)
	assert.True(t, qerr.IsInvalidArgument(err), "empty set")
}

func TestHierarchyIsIn(t *testing.T) {
	h := geography()

	c, err := HierarchyIsIn(h, []any{"France"}, []any{"Germany", "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, cube.HierarchyKey{Dimension: "Geography", Hierarchy: "City"}, c.Hierarchy)
	assert.Len(t, c.Paths, 2)

	tests := []struct {
		name  string
		paths [][]any
	}{
		{"over-long path", [][]any{{"France", "Paris", "11e"}}},
		{"empty path", [][]any{{}}},
		{"empty set", nil},
		{"null in path", [][]any{{"France", nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HierarchyIsIn(h, tt.paths...)
			require.Error(t, err)
			assert.True(t, qerr.IsInvalidArgument(err))
		})
	}
}

func TestConstructionCopiesInputs(t *testing.T) {
	values := []any{"EUR"}
	c, err := LevelIsIn(currency, values...)
	require.NoError(t, err)
	values[0] = "GBP"
	assert.Equal(t, "EUR", c.Values[0])
}

func TestAndFlattens(t *testing.T) {
	eq, err := LevelEq(country, "France")
	require.NoError(t, err)
	in, err := LevelIsIn(currency, "EUR")
	require.NoError(t, err)
	hi, err := HierarchyIsIn(geography(), []any{"France"})
	require.NoError(t, err)
	mc, err := MeasureCompare("Price.SUM", OpGt, 10)
	require.NoError(t, err)

	left := And(eq, in)
	right := And(hi, mc)
	all := And(left, right, nil)

	assert.Len(t, all.Levels, 1)
	assert.Len(t, all.LevelIsIns, 1)
	assert.Len(t, all.HierarchyIsIns, 1)
	assert.Len(t, all.Measures, 1)
	assert.Equal(t, 4, all.Len())

	// Nesting never happens: conjoining a conjunction with itself just
	// doubles the lists.
	twice := And(all, &all)
	assert.Equal(t, 8, twice.Len())
	assert.Equal(t, []LevelCondition{eq, eq}, twice.Levels)
}

func TestAndKeepsOrderWithinKind(t *testing.T) {
	a, _ := LevelEq(country, "France")
	b, _ := LevelEq(currency, "EUR")

	ab := Decombine(And(a, b))
	ba := Decombine(And(b, a))
	assert.Equal(t, []LevelCondition{a, b}, ab.Levels)
	assert.Equal(t, []LevelCondition{b, a}, ba.Levels)
}

func TestDecombine(t *testing.T) {
	eq, _ := LevelEq(country, "France")

	d := Decombine(eq)
	assert.Equal(t, []LevelCondition{eq}, d.Levels)
	assert.Empty(t, d.LevelIsIns)
	assert.False(t, d.IsEmpty())

	assert.True(t, Decombine(nil).IsEmpty())
}

func TestRequireCompilable(t *testing.T) {
	eq, _ := LevelEq(country, "France")
	require.NoError(t, Decombine(eq).RequireCompilable())

	mc, _ := MeasureCompare("Price.SUM", OpGe, 100)
	err := Decombine(And(eq, mc)).RequireCompilable()
	require.Error(t, err)
	assert.True(t, qerr.IsUnsupportedCondition(err))
	assert.True(t, qerr.IsCallerError(err))
}

func TestParseOp(t *testing.T) {
	for in, want := range map[string]Op{"": OpEq, "=": OpEq, "==": OpEq, "<>": OpNe, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe} {
		got, err := ParseOp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOp("like")
	assert.True(t, qerr.IsInvalidArgument(err))
}

func TestStrings(t *testing.T) {
	eq, _ := LevelEq(country, "France")
	assert.Equal(t, `[Geography].[City].[Country] == "France"`, eq.String())

	null, _ := LevelCompare(city, OpNe, nil)
	assert.Equal(t, `[Geography].[City].[City] != null`, null.String())

	hi, _ := HierarchyIsIn(geography(), []any{"France", "Paris"})
	assert.Equal(t, `[Geography].[City] isin [["France", "Paris"]]`, hi.String())
}
