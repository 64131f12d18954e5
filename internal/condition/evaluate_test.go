package condition

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

type record struct {
	levels   map[cube.LevelKey]any
	paths    map[cube.HierarchyKey][]any
	measures map[string]any
}

func (r record) LevelValue(k cube.LevelKey) (any, bool) {
	v, ok := r.levels[k]
	return v, ok
}

func (r record) HierarchyPath(k cube.HierarchyKey) ([]any, bool) {
	p, ok := r.paths[k]
	return p, ok
}

func (r record) MeasureValue(name string) (any, bool) {
	v, ok := r.measures[name]
	return v, ok
}

var day = cube.LevelKey{Dimension: "Date", Hierarchy: "Date", Level: "Day"}

func parisRow() record {
	return record{
		levels: map[cube.LevelKey]any{
			country:  "France",
			city:     "Paris",
			currency: nil,
			day:      time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		paths: map[cube.HierarchyKey][]any{
			{Dimension: "Geography", Hierarchy: "City"}: {"France", "Paris"},
		},
		measures: map[string]any{
			"Price.SUM":    decimal.RequireFromString("12.50"),
			"Quantity.SUM": int64(3),
		},
	}
}

func TestEvaluate(t *testing.T) {
	row := parisRow()
	must := func(c Condition, err error) Condition {
		t.Helper()
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"level equality", must(LevelEq(country, "France")), true},
		{"level inequality", must(LevelCompare(country, OpNe, "France")), false},
		{"null check", must(LevelEq(currency, nil)), true},
		{"not null check", must(LevelCompare(city, OpNe, nil)), true},
		{"null never ordered", must(LevelCompare(currency, OpNe, "EUR")), true},
		{"isin", must(LevelIsIn(city, "Berlin", "Paris")), true},
		{"not in", must(LevelIsIn(city, "Berlin")), false},
		{"hierarchy ancestor selected", must(HierarchyIsIn(geography(), []any{"France"})), true},
		{"hierarchy other branch", must(HierarchyIsIn(geography(), []any{"Germany"})), false},
		{"measure decimal vs int", must(MeasureCompare("Price.SUM", OpGt, 12)), true},
		{"measure decimal vs float", must(MeasureCompare("Price.SUM", OpLe, 12.5)), true},
		{"measure int64 equality", must(MeasureCompare("Quantity.SUM", OpEq, 3)), true},
		{"date vs string", must(LevelCompare(day, OpGe, "2020-01-10")), true},
		{"date before", must(LevelCompare(day, OpLt, "2020-01-01")), false},
		{"conjunction", And(must(LevelEq(country, "France")), must(MeasureCompare("Quantity.SUM", OpLt, 2))), false},
		{"empty conjunction", And(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateMissingField(t *testing.T) {
	row := parisRow()

	_, err := Evaluate(MeasureCondition{Measure: "Nope", Op: OpEq, Value: 1}, row)
	assert.True(t, qerr.IsSchemaLookupFailure(err))

	_, err = Evaluate(LevelCondition{Level: cube.LevelKey{Dimension: "X", Hierarchy: "X", Level: "X"}, Op: OpEq, Value: "a"}, row)
	assert.True(t, qerr.IsSchemaLookupFailure(err))
}

func TestPathAdmitted(t *testing.T) {
	selected := [][]any{{"France", "Paris"}}

	assert.True(t, PathAdmitted(selected, []any{}), "grand total")
	assert.True(t, PathAdmitted(selected, []any{"France"}), "ancestor")
	assert.True(t, PathAdmitted(selected, []any{"France", "Paris"}), "member")
	assert.False(t, PathAdmitted(selected, []any{"France", "Lyon"}))
	assert.False(t, PathAdmitted(selected, []any{"Germany"}))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b any
		want int
		ok   bool
	}{
		{1, 2, -1, true},
		{int64(5), 5.0, 0, true},
		{decimal.RequireFromString("1.10"), "1.1", 0, true},
		{"b", "a", 1, true},
		{false, true, -1, true},
		{true, "x", 0, false},
		{decimal.NewFromInt(1), "N/A", 0, false},
	}
	for _, tt := range tests {
		got, ok := Compare(tt.a, tt.b)
		assert.Equal(t, tt.ok, ok, "%v vs %v", tt.a, tt.b)
		if tt.ok {
			assert.Equal(t, tt.want, got, "%v vs %v", tt.a, tt.b)
		}
	}
}
