package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
)

// CellsetBuilder assembles cellsets for tests.
//
//	cs := testutil.NewCellset("Sales").
//		Axis(0, testutil.MeasuresHierarchy).Position(P("Price.SUM")).Done().
//		Axis(1, testutil.CityHierarchy).Position(P("AllMember", "France", "Paris")).Done().
//		Cell(0, 12, "12.00").
//		Build()
type CellsetBuilder struct {
	cs cellset.Cellset
}

// NewCellset starts a cellset for the named cube.
func NewCellset(cubeName string) *CellsetBuilder {
	return &CellsetBuilder{cs: cellset.Cellset{Cube: cubeName}}
}

// AxisBuilder adds positions to one axis.
type AxisBuilder struct {
	b   *CellsetBuilder
	idx int
}

// Axis appends an axis carrying the given hierarchies.
func (b *CellsetBuilder) Axis(id int, hierarchies ...cube.HierarchyKey) *AxisBuilder {
	b.cs.Axes = append(b.cs.Axes, cellset.Axis{ID: id, Hierarchies: hierarchies, Positions: [][]cellset.Member{}})
	return &AxisBuilder{b: b, idx: len(b.cs.Axes) - 1}
}

// Position appends a position with one name path per hierarchy. Captions
// equal names.
func (a *AxisBuilder) Position(paths ...[]string) *AxisBuilder {
	members := make([]cellset.Member, len(paths))
	for i, p := range paths {
		members[i] = Member(p...)
	}
	return a.Members(members...)
}

// Members appends a position built from explicit members.
func (a *AxisBuilder) Members(members ...cellset.Member) *AxisBuilder {
	axis := &a.b.cs.Axes[a.idx]
	axis.Positions = append(axis.Positions, members)
	return a
}

// Done returns to the cellset builder.
func (a *AxisBuilder) Done() *CellsetBuilder {
	return a.b
}

// Cell appends a cell. Go numbers are stored as decimals, the way Decode
// stores JSON numbers.
func (b *CellsetBuilder) Cell(ordinal int, value any, formatted string) *CellsetBuilder {
	b.cs.Cells = append(b.cs.Cells, cellset.Cell{Ordinal: ordinal, Value: Number(value), FormattedValue: formatted})
	return b
}

// StyledCell appends a cell with style properties.
func (b *CellsetBuilder) StyledCell(ordinal int, value any, formatted string, props cellset.CellProperties) *CellsetBuilder {
	b.cs.Cells = append(b.cs.Cells, cellset.Cell{
		Ordinal:        ordinal,
		Value:          Number(value),
		FormattedValue: formatted,
		Properties:     &props,
	})
	return b
}

// DefaultMeasure records the default measure member.
func (b *CellsetBuilder) DefaultMeasure(name, caption string) *CellsetBuilder {
	b.cs.DefaultMembers = append(b.cs.DefaultMembers, cellset.DefaultMember{
		Dimension:   cube.MeasuresDimension,
		Hierarchy:   cube.MeasuresDimension,
		Path:        []string{name},
		CaptionPath: []string{caption},
	})
	return b
}

// Build returns the cellset. The builder must not be reused.
func (b *CellsetBuilder) Build() *cellset.Cellset {
	cs := b.cs
	return &cs
}

// P is shorthand for a name path.
func P(names ...string) []string {
	return names
}

// Member returns a member whose captions equal its names.
func Member(names ...string) cellset.Member {
	return cellset.Member{
		NamePath:    append([]string{}, names...),
		CaptionPath: append([]string{}, names...),
	}
}

// Captioned returns a member with distinct captions.
func Captioned(names, captions []string) cellset.Member {
	return cellset.Member{NamePath: names, CaptionPath: captions}
}

// Number converts Go numbers to decimal.Decimal and leaves anything else
// unchanged.
func Number(v any) any {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case float64:
		return decimal.NewFromFloat(n)
	default:
		return v
	}
}

// Int returns a pointer to n, for optional cell properties.
func Int(n int) *int {
	return &n
}

// String returns a pointer to s, for optional cell properties.
func String(s string) *string {
	return &s
}
