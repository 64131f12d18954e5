package result

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
	"github.com/roach88/pivotql/internal/testutil"
)

var p = testutil.P

// yearMonthCellset has Price.SUM on columns and Year/Month on rows with
// every subtotal: grand total, 2019, 2019/Jan, 2019/Feb, 2020, 2020/Jan.
func yearMonthCellset() *cellset.Cellset {
	b := testutil.NewCellset("Sales")
	b.Axis(0, testutil.MeasuresHierarchy).
		Members(testutil.Captioned(p("Price.SUM"), p("Price")))
	rows := b.Axis(1, testutil.DateHierarchy)
	paths := [][]string{
		p("AllMember"),
		p("AllMember", "2019"),
		p("AllMember", "2019", "Jan"),
		p("AllMember", "2019", "Feb"),
		p("AllMember", "2020"),
		p("AllMember", "2020", "Jan"),
	}
	for _, path := range paths {
		rows.Position(path)
	}
	values := []int{60, 30, 10, 20, 30, 30}
	for i, v := range values {
		b.Cell(i, v, decimal.NewFromInt(int64(v)).StringFixed(2))
	}
	return b.Build()
}

func TestMaterializeLeafRows(t *testing.T) {
	r, err := Materialize(yearMonthCellset(), testutil.SalesCube(), false)
	require.NoError(t, err)

	names := r.Names()
	cols := names.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, "Year", cols[0].Name)
	assert.Equal(t, "Month", cols[1].Name)
	assert.Equal(t, "Price.SUM", cols[2].Name)
	assert.Equal(t, "Price", cols[2].Caption)
	assert.Equal(t, testutil.YearLevel, *cols[0].Level)
	assert.False(t, cols[2].IsIndex())

	require.Equal(t, 3, names.Len())
	assert.Equal(t, []any{int64(2019), "Jan", decimal.NewFromInt(10)}, names.Row(0))
	assert.Equal(t, []any{int64(2019), "Feb", decimal.NewFromInt(20)}, names.Row(1))
	assert.Equal(t, []any{int64(2020), "Jan", decimal.NewFromInt(30)}, names.Row(2))
	assert.Empty(t, r.TotalRows())

	captions, ok := r.Captions()
	require.True(t, ok)
	assert.Equal(t, []any{"2019", "Jan", "10.00"}, captions.Row(0))
}

func TestMaterializeTotals(t *testing.T) {
	r, err := Materialize(yearMonthCellset(), testutil.SalesCube(), true)
	require.NoError(t, err)
	require.Equal(t, 6, r.Len())
	assert.Equal(t, []int{0, 1, 4}, r.TotalRows())

	names := r.Names()
	assert.Equal(t, []any{nil, nil, decimal.NewFromInt(60)}, names.Row(0))
	assert.Equal(t, []any{int64(2019), nil, decimal.NewFromInt(30)}, names.Row(1))

	captions, ok := r.Captions()
	require.True(t, ok)
	assert.Equal(t, []any{TotalLabel, "", "60.00"}, captions.Row(0))
	assert.Equal(t, []any{"2019", "", "30.00"}, captions.Row(1))
}

func TestTotalsRoundTrip(t *testing.T) {
	c := testutil.SalesCube()

	direct, err := Materialize(yearMonthCellset(), c, false)
	require.NoError(t, err)

	withTotals, err := Materialize(yearMonthCellset(), c, true)
	require.NoError(t, err)
	require.NoError(t, withTotals.Names().DeleteRows(withTotals.TotalRows()...))

	assert.Equal(t, direct.Names().Columns(), withTotals.Names().Columns())
	assert.Equal(t, direct.Names().Rows(), withTotals.Names().Rows())
}

func TestOrdinalDecodeUsesListedAxisOrder(t *testing.T) {
	c := testutil.SalesCube()
	currencies := [][]string{p("EUR"), p("USD"), p("GBP")}
	years := [][]string{p("AllMember", "2019"), p("AllMember", "2020")}

	build := func(currencyFirst bool) *cellset.Cellset {
		b := testutil.NewCellset("Sales").DefaultMeasure("Price.SUM", "Price")
		addCurrency := func(id int) {
			a := b.Axis(id, testutil.CurrencyHierarchy)
			for _, cur := range currencies {
				a.Position(cur)
			}
		}
		addYear := func(id int) {
			a := b.Axis(id, testutil.DateHierarchy)
			for _, y := range years {
				a.Position(y)
			}
		}
		if currencyFirst {
			addCurrency(0)
			addYear(1)
		} else {
			addYear(0)
			addCurrency(1)
		}
		return b.Cell(4, 7, "7.00").Build()
	}

	// A(3) listed before B(2): 4 = 1 + 1*3, so A=1, B=1.
	r, err := Materialize(build(true), c, false)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	currency, _ := r.Names().Get(0, "Currency")
	year, _ := r.Names().Get(0, "Year")
	assert.Equal(t, "USD", currency)
	assert.Equal(t, int64(2020), year)

	// B(2) listed before A(3): 4 = 0 + 2*2, so B=0, A=2.
	r, err = Materialize(build(false), c, false)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	currency, _ = r.Names().Get(0, "Currency")
	year, _ = r.Names().Get(0, "Year")
	assert.Equal(t, "GBP", currency)
	assert.Equal(t, int64(2019), year)
}

func TestDateCoercion(t *testing.T) {
	c, err := cube.New("Trades",
		[]*cube.Dimension{{Name: "Date", Hierarchies: []*cube.Hierarchy{{
			Name:    "Date",
			Slicing: true,
			Levels:  []*cube.Level{{Name: "Date", Type: cube.ParseLevelType("localDate[yyyy-MM-dd]")}},
		}}}},
		[]*cube.Measure{{Name: "Price.SUM"}},
	)
	require.NoError(t, err)

	date := cube.HierarchyKey{Dimension: "Date", Hierarchy: "Date"}
	b := testutil.NewCellset("Trades").DefaultMeasure("Price.SUM", "Price.SUM")
	rows := b.Axis(0, date)
	for _, d := range []string{"2020-01-10", "2020-01-20", "N/A"} {
		rows.Position(p(d))
	}
	cs := b.Cell(0, 1, "1").Cell(1, 2, "2").Cell(2, 3, "3").Build()

	r, err := Materialize(cs, c, false)
	require.NoError(t, err)

	var got []any
	for i := 0; i < r.Len(); i++ {
		v, _ := r.Names().Get(i, "Date")
		got = append(got, v)
	}
	assert.Equal(t, []any{
		time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC),
		"N/A",
	}, got)

	captions, ok := r.Captions()
	require.True(t, ok)
	var gotCaptions []any
	for i := 0; i < captions.Len(); i++ {
		v, _ := captions.Get(i, "Date")
		gotCaptions = append(gotCaptions, v)
	}
	assert.Equal(t, []any{"2020-01-10", "2020-01-20", "N/A"}, gotCaptions)
}

func TestEmptyAxis(t *testing.T) {
	b := testutil.NewCellset("Sales")
	b.Axis(0, testutil.MeasuresHierarchy).
		Position(p("Price.SUM")).
		Position(p("Quantity.SUM"))
	b.Axis(1, testutil.CityHierarchy)

	r, err := Materialize(b.Build(), testutil.SalesCube(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())

	var measures []string
	for _, m := range r.Measures() {
		measures = append(measures, m.Name)
	}
	assert.Equal(t, []string{"Price.SUM", "Quantity.SUM"}, measures)
}

func TestScalarResult(t *testing.T) {
	cs := testutil.NewCellset("Sales").
		DefaultMeasure("Price.SUM", "Price").
		Cell(0, 42, "42.00").
		Build()

	r, err := Materialize(cs, testutil.SalesCube(), false)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())

	cols := r.Names().Columns()
	require.Len(t, cols, 1)
	assert.Equal(t, "Price.SUM", cols[0].Name)

	v, ok := r.Names().Get(0, "Price.SUM")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(42).Equal(v.(decimal.Decimal)))

	captions, ok := r.Captions()
	require.True(t, ok)
	formatted, _ := captions.Get(0, "Price.SUM")
	assert.Equal(t, "42.00", formatted)
}

func TestSlicerAxisIgnored(t *testing.T) {
	b := testutil.NewCellset("Sales").DefaultMeasure("Price.SUM", "Price")
	b.Axis(cellset.SlicerAxisID, testutil.CurrencyHierarchy).Position(p("EUR"))
	b.Cell(0, 5, "5.00")

	r, err := Materialize(b.Build(), testutil.SalesCube(), false)
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	assert.Len(t, r.Names().IndexColumns(), 0)
}

func TestMissingMeasureCells(t *testing.T) {
	b := testutil.NewCellset("Sales")
	b.Axis(0, testutil.MeasuresHierarchy).Position(p("Price.SUM")).Position(p("Quantity.SUM"))
	b.Axis(1, testutil.CurrencyHierarchy).Position(p("EUR")).Position(p("USD"))
	// Quantity is missing on EUR, Price on USD.
	cs := b.Cell(0, 1, "1.00").Cell(3, 2, "2").Build()

	r, err := Materialize(cs, testutil.SalesCube(), false)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, []any{"EUR", decimal.NewFromInt(1), nil}, r.Names().Row(0))
	assert.Equal(t, []any{"USD", nil, decimal.NewFromInt(2)}, r.Names().Row(1))

	captions, _ := r.Captions()
	assert.Equal(t, []any{"EUR", "1.00", ""}, captions.Row(0))
	assert.Equal(t, []any{"USD", "", "2"}, captions.Row(1))
}

func TestBranchHierarchyOnAxis(t *testing.T) {
	b := testutil.NewCellset("Sales").DefaultMeasure("Price.SUM", "Price")
	b.Axis(0, testutil.BranchHierarchy).Position(p("Base")).Position(p("stress"))
	cs := b.Cell(0, 1, "1").Cell(1, 2, "2").Build()

	r, err := Materialize(cs, testutil.SalesCube(), false)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	v, _ := r.Names().Get(1, cube.BranchLevel)
	assert.Equal(t, "stress", v, "branch members stay opaque strings")
}

func TestMaterializeErrors(t *testing.T) {
	c := testutil.SalesCube()

	t.Run("unknown hierarchy", func(t *testing.T) {
		b := testutil.NewCellset("Sales").DefaultMeasure("Price.SUM", "Price")
		b.Axis(0, cube.HierarchyKey{Dimension: "Nope", Hierarchy: "Nope"}).Position(p("x"))
		_, err := Materialize(b.Cell(0, 1, "1").Build(), c, false)
		assert.True(t, qerr.IsSchemaLookupFailure(err))
	})

	t.Run("ordinal out of range", func(t *testing.T) {
		b := testutil.NewCellset("Sales").DefaultMeasure("Price.SUM", "Price")
		b.Axis(0, testutil.CurrencyHierarchy).Position(p("EUR"))
		_, err := Materialize(b.Cell(1, 1, "1").Build(), c, false)
		assert.True(t, qerr.IsMalformedCellset(err))
	})

	t.Run("no measure anywhere", func(t *testing.T) {
		cs := testutil.NewCellset("Sales").Cell(0, 1, "1").Build()
		_, err := Materialize(cs, c, false)
		assert.True(t, qerr.IsMalformedCellset(err))
	})

	t.Run("paths deeper than the hierarchy", func(t *testing.T) {
		b := testutil.NewCellset("Sales").DefaultMeasure("Price.SUM", "Price")
		b.Axis(0, testutil.CurrencyHierarchy).Position(p("EUR", "extra"))
		_, err := Materialize(b.Cell(0, 1, "1").Build(), c, false)
		assert.True(t, qerr.IsMalformedCellset(err))
	})
}
