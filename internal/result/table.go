package result

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/pivotql/internal/condition"
	"github.com/roach88/pivotql/internal/cube"
)

// Column describes one table column. Index columns carry the level they
// come from; value columns carry a measure name.
type Column struct {
	Name    string `json:"name"`
	Caption string `json:"caption,omitempty"`

	// Level is set on index columns.
	Level *cube.LevelKey `json:"level,omitempty"`
}

// IsIndex reports whether the column is an index (level) column.
func (c Column) IsIndex() bool {
	return c.Level != nil
}

// Table is an ordered set of rows with index columns (levels) followed by
// value columns (measures).
//
// Every mutation increments the table's revision. The revision never goes
// back, so a view captured at one revision can tell it is stale even when a
// later mutation restores the original contents.
type Table struct {
	index    []Column
	values   []Column
	rows     [][]any
	revision uint64
}

func newTable(index, values []Column) *Table {
	return &Table{index: index, values: values}
}

// Revision returns the mutation counter.
func (t *Table) Revision() uint64 {
	return t.revision
}

// IndexColumns returns the level columns in order.
func (t *Table) IndexColumns() []Column {
	return slices.Clone(t.index)
}

// ValueColumns returns the measure columns in order.
func (t *Table) ValueColumns() []Column {
	return slices.Clone(t.values)
}

// Columns returns index columns followed by value columns.
func (t *Table) Columns() []Column {
	return append(t.IndexColumns(), t.values...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of row i, index values first.
func (t *Table) Row(i int) []any {
	return slices.Clone(t.rows[i])
}

// Rows returns a copy of every row.
func (t *Table) Rows() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Get returns the value of the named column on row i.
func (t *Table) Get(i int, column string) (any, bool) {
	c, ok := t.column(column)
	if !ok || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][c], true
}

// column returns the position of the first column with the given name.
func (t *Table) column(name string) (int, bool) {
	for i, c := range t.index {
		if c.Name == name {
			return i, true
		}
	}
	for i, c := range t.values {
		if c.Name == name {
			return len(t.index) + i, true
		}
	}
	return 0, false
}

func (t *Table) levelColumn(key cube.LevelKey) (int, bool) {
	for i, c := range t.index {
		if *c.Level == key {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) width() int {
	return len(t.index) + len(t.values)
}

func (t *Table) bump() {
	t.revision++
}

// Set replaces the value of the named column on row i.
func (t *Table) Set(i int, column string, v any) error {
	c, ok := t.column(column)
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("row %d out of range [0, %d)", i, len(t.rows))
	}
	t.rows[i][c] = v
	t.bump()
	return nil
}

// AppendRow appends a row. It must hold one value per column.
func (t *Table) AppendRow(row []any) error {
	if len(row) != t.width() {
		return fmt.Errorf("row has %d values for %d columns", len(row), t.width())
	}
	t.rows = append(t.rows, slices.Clone(row))
	t.bump()
	return nil
}

// DeleteRows removes the rows at the given indices.
func (t *Table) DeleteRows(indices ...int) error {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(t.rows) {
			return fmt.Errorf("row %d out of range [0, %d)", i, len(t.rows))
		}
		drop[i] = true
	}
	kept := t.rows[:0:0]
	for i, r := range t.rows {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	t.rows = kept
	t.bump()
	return nil
}

// SortBy stably sorts rows by the named column. Values compare with
// condition.Compare; nil sorts first.
func (t *Table) SortBy(column string, descending bool) error {
	c, ok := t.column(column)
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		cmp := compareCells(t.rows[i][c], t.rows[j][c])
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	t.bump()
	return nil
}

func compareCells(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	cmp, ok := condition.Compare(a, b)
	if !ok {
		return 0
	}
	return cmp
}

// subset returns a fresh table holding the given rows, revision zero.
func (t *Table) subset(rows []int) *Table {
	out := newTable(t.index, t.values)
	out.rows = make([][]any, len(rows))
	for i, r := range rows {
		out.rows[i] = slices.Clone(t.rows[r])
	}
	return out
}
