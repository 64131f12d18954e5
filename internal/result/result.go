package result

import (
	"slices"
	"sync"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/condition"
	"github.com/roach88/pivotql/internal/cube"
)

// TabularResult is a materialized query result.
//
// The names table is owned by the caller and may be mutated. The caption
// and style views are only presented while the names table is at the
// revision captured when the result was built; after any mutation they
// report unavailable, permanently.
type TabularResult struct {
	names    *Table
	captions *Table
	base     uint64

	// totals flags subtotal and grand-total rows at the base revision.
	totals []bool

	// styleSrc is nil when no cell carried style.
	styleSrc     [][]*cellset.CellProperties
	captionIndex [][]any
	styleOnce    sync.Once
	styles       *Table
}

// Names returns the name-indexed table: coerced level members and raw
// measure values.
func (r *TabularResult) Names() *Table {
	return r.names
}

// Stale reports whether the names table changed since materialization.
func (r *TabularResult) Stale() bool {
	return r.names.Revision() != r.base
}

// Captions returns the caption-indexed table, or false once the names table
// has been mutated.
func (r *TabularResult) Captions() (*Table, bool) {
	if r.captions == nil || r.Stale() {
		return nil, false
	}
	return r.captions, true
}

// Styles returns the style view, keyed like the caption table, with one CSS
// declaration list per measure cell. It is built on first access. ok is
// false when no cell carried style, styles were disabled, or the names
// table has been mutated.
func (r *TabularResult) Styles() (*Table, bool) {
	if r.styleSrc == nil || r.Stale() {
		return nil, false
	}
	r.styleOnce.Do(r.buildStyles)
	return r.styles, true
}

func (r *TabularResult) buildStyles() {
	t := newTable(r.names.index, r.names.values)
	for i, props := range r.styleSrc {
		row := slices.Clone(r.captionIndex[i])
		for _, p := range props {
			row = append(row, CSS(p))
		}
		t.rows = append(t.rows, row)
	}
	r.styles = t
}

// Measures returns the measure columns in response order.
func (r *TabularResult) Measures() []Column {
	return r.names.ValueColumns()
}

// Len returns the number of rows in the names table.
func (r *TabularResult) Len() int {
	return r.names.Len()
}

// TotalRows returns the indices of subtotal and grand-total rows. The
// indices refer to the names table as materialized.
func (r *TabularResult) TotalRows() []int {
	var out []int
	for i, t := range r.totals {
		if t {
			out = append(out, i)
		}
	}
	return out
}

// Records returns one condition.Record per row of the names table.
func (r *TabularResult) Records() []Row {
	rows := make([]Row, r.names.Len())
	for i := range rows {
		rows[i] = Row{table: r.names, index: i}
	}
	return rows
}

// Where returns a new result holding the rows that satisfy c. Captions and
// styles follow when they are still available.
func (r *TabularResult) Where(c condition.Condition) (*TabularResult, error) {
	var keep []int
	for i, rec := range r.Records() {
		ok, err := condition.Evaluate(c, rec)
		if err != nil {
			return nil, err
		}
		if ok {
			keep = append(keep, i)
		}
	}

	out := &TabularResult{names: r.names.subset(keep)}
	stale := r.Stale()
	if !stale {
		out.captions = r.captions.subset(keep)
		out.totals = make([]bool, len(keep))
		for i, k := range keep {
			out.totals[i] = r.totals[k]
		}
		if r.styleSrc != nil {
			out.styleSrc = make([][]*cellset.CellProperties, len(keep))
			out.captionIndex = make([][]any, len(keep))
			for i, k := range keep {
				out.styleSrc[i] = r.styleSrc[k]
				out.captionIndex[i] = r.captionIndex[k]
			}
		}
	}
	out.base = out.names.Revision()
	return out, nil
}

// Row is one row of a names table seen as a condition.Record.
type Row struct {
	table *Table
	index int
}

// LevelValue implements condition.Record.
func (r Row) LevelValue(key cube.LevelKey) (any, bool) {
	col, ok := r.table.levelColumn(key)
	if !ok {
		return nil, false
	}
	return r.table.rows[r.index][col], true
}

// HierarchyPath implements condition.Record. The path stops at the first
// missing level, so total rows yield their shorter path.
func (r Row) HierarchyPath(key cube.HierarchyKey) ([]any, bool) {
	found := false
	var path []any
	for col, c := range r.table.index {
		if c.Level.HierarchyKey() != key {
			continue
		}
		found = true
		v := r.table.rows[r.index][col]
		if v == nil {
			break
		}
		path = append(path, v)
	}
	return path, found
}

// MeasureValue implements condition.Record.
func (r Row) MeasureValue(name string) (any, bool) {
	for i, c := range r.table.values {
		if c.Name == name {
			return r.table.rows[r.index][len(r.table.index)+i], true
		}
	}
	return nil, false
}

var _ condition.Record = Row{}
