// Package result turns an engine cellset into a tabular result.
//
// Materialize reconstructs each cell's coordinates from its flat ordinal,
// separates leaf rows from subtotal and grand-total rows, strips the
// implicit root from non-slicing hierarchies and builds three aligned views:
//
//   - names: level members coerced to the level's type, measure values
//   - captions: member captions and formatted values
//   - styles: CSS declarations per cell, built on first access
//
// The caption and style views describe the result as materialized. Once the
// names table is mutated they are withdrawn (see TabularResult).
package result

import (
	"sort"
	"strings"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// TotalLabel is the caption of a grand-total row.
const TotalLabel = "Total"

// Option configures Materialize.
type Option func(*options)

type options struct {
	styles bool
}

// WithoutStyles skips style capture even when cells carry style
// properties.
func WithoutStyles() Option {
	return func(o *options) { o.styles = false }
}

// axisHierarchy is one hierarchy of one data axis, with what the response
// says about it.
type axisHierarchy struct {
	axis int // index into the data axes
	pos  int // index of the member within a position

	key       cube.HierarchyKey
	hierarchy *cube.Hierarchy // nil for Measures

	fullDepth int // longest raw member path in this response
	root      int // 1 when raw paths start with the implicit root
	levels    int // level columns exposed
	firstCol  int // index of the first level column
}

type rowBuilder struct {
	names     []any
	captions  []any
	values    []any
	formatted []any
	styles    []*cellset.CellProperties
	total     bool
}

// Materialize builds the tabular result of cs. When keepTotals is false,
// subtotal and grand-total rows are dropped before any other processing.
//
// Unknown hierarchies fail with SchemaLookupFailure, except the reserved
// branching hierarchy. Responses inconsistent with their own axes fail with
// MalformedCellset.
func Materialize(cs *cellset.Cellset, c *cube.Cube, keepTotals bool, opts ...Option) (*TabularResult, error) {
	o := options{styles: true}
	for _, opt := range opts {
		opt(&o)
	}

	data := cs.DataAxes()
	hiers, measuresAt, err := resolveHierarchies(c, data)
	if err != nil {
		return nil, err
	}

	var index []Column
	for _, ah := range hiers {
		ah.firstCol = len(index)
		for d := 0; d < ah.levels; d++ {
			l := ah.hierarchy.Levels[d]
			key := l.Key()
			index = append(index, Column{Name: l.Name, Caption: l.Caption, Level: &key})
		}
	}

	measures, err := measureColumns(cs, data, measuresAt)
	if err != nil {
		return nil, err
	}
	measureIdx := make(map[string]int, len(measures))
	for i, m := range measures {
		measureIdx[m.Name] = i
	}
	defaultName, _, _ := cs.DefaultMeasure()

	styled := o.styles && anyStyled(cs.Cells)

	cells := make([]cellset.Cell, len(cs.Cells))
	copy(cells, cs.Cells)
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].Ordinal < cells[j].Ordinal })

	var rows []*rowBuilder
	rowByKey := make(map[string]*rowBuilder)

	for _, cell := range cells {
		coords, err := cellset.Coordinates(cell.Ordinal, data)
		if err != nil {
			return nil, err
		}

		total := false
		for _, ah := range hiers {
			m := member(data, coords, ah)
			if len(m.NamePath) < ah.fullDepth {
				total = true
				break
			}
		}
		if total && !keepTotals {
			continue
		}

		measure := defaultName
		if measuresAt != nil {
			m := member(data, coords, measuresAt)
			if len(m.NamePath) == 0 {
				return nil, qerr.MalformedCellset("cell %d has an empty measure member", cell.Ordinal)
			}
			measure = m.NamePath[len(m.NamePath)-1]
		}
		mi, ok := measureIdx[measure]
		if !ok {
			return nil, qerr.MalformedCellset("cell %d has no measure", cell.Ordinal)
		}

		key := rowKey(data, coords, hiers)
		row, ok := rowByKey[key]
		if !ok {
			row = newRow(data, coords, hiers, len(index), len(measures), total)
			rowByKey[key] = row
			rows = append(rows, row)
		}
		row.values[mi] = cell.Value
		row.formatted[mi] = cell.FormattedValue
		if styled && cell.HasStyle() {
			row.styles[mi] = cell.Properties
		}
	}

	return assemble(index, measures, rows, styled), nil
}

func resolveHierarchies(c *cube.Cube, data []cellset.Axis) ([]*axisHierarchy, *axisHierarchy, error) {
	var hiers []*axisHierarchy
	var measuresAt *axisHierarchy

	for ai, a := range data {
		for hi, key := range a.Hierarchies {
			ah := &axisHierarchy{axis: ai, pos: hi, key: key}
			for _, p := range a.Positions {
				ah.fullDepth = max(ah.fullDepth, len(p[hi].NamePath))
			}

			if key.IsMeasures() {
				if measuresAt != nil {
					return nil, nil, qerr.MalformedCellset("Measures hierarchy appears on more than one axis")
				}
				measuresAt = ah
				continue
			}

			h, err := c.Hierarchy(key)
			if err != nil {
				return nil, nil, err
			}
			ah.hierarchy = h
			if !h.Slicing {
				ah.root = 1
			}
			ah.levels = max(ah.fullDepth-ah.root, 0)
			if ah.levels > len(h.Levels) {
				return nil, nil, qerr.MalformedCellset("member paths of %s are %d deep but the hierarchy has %d levels",
					key, ah.levels, len(h.Levels))
			}
			hiers = append(hiers, ah)
		}
	}
	return hiers, measuresAt, nil
}

// measureColumns lists measures in first-seen order along the Measures
// hierarchy, or the default measure when no axis carries measures.
func measureColumns(cs *cellset.Cellset, data []cellset.Axis, measuresAt *axisHierarchy) ([]Column, error) {
	if measuresAt == nil {
		name, caption, ok := cs.DefaultMeasure()
		if !ok {
			if len(cs.Cells) > 0 {
				return nil, qerr.MalformedCellset("no axis carries measures and no default measure is declared")
			}
			return nil, nil
		}
		return []Column{{Name: name, Caption: caption}}, nil
	}

	var cols []Column
	seen := make(map[string]bool)
	for _, p := range data[measuresAt.axis].Positions {
		m := p[measuresAt.pos]
		if len(m.NamePath) == 0 {
			return nil, qerr.MalformedCellset("empty measure member on axis %d", data[measuresAt.axis].ID)
		}
		name := m.NamePath[len(m.NamePath)-1]
		if seen[name] {
			continue
		}
		seen[name] = true
		caption := name
		if len(m.CaptionPath) > 0 {
			caption = m.CaptionPath[len(m.CaptionPath)-1]
		}
		cols = append(cols, Column{Name: name, Caption: caption})
	}
	return cols, nil
}

func member(data []cellset.Axis, coords []int, ah *axisHierarchy) cellset.Member {
	return data[ah.axis].Positions[coords[ah.axis]][ah.pos]
}

const (
	pathSep      = "\x1f"
	hierarchySep = "\x1e"
)

func rowKey(data []cellset.Axis, coords []int, hiers []*axisHierarchy) string {
	parts := make([]string, len(hiers))
	for i, ah := range hiers {
		parts[i] = strings.Join(member(data, coords, ah).NamePath, pathSep)
	}
	return strings.Join(parts, hierarchySep)
}

func newRow(data []cellset.Axis, coords []int, hiers []*axisHierarchy, nIndex, nMeasures int, total bool) *rowBuilder {
	row := &rowBuilder{
		names:     make([]any, nIndex),
		captions:  make([]any, nIndex),
		values:    make([]any, nMeasures),
		formatted: make([]any, nMeasures),
		styles:    make([]*cellset.CellProperties, nMeasures),
		total:     total,
	}
	for i := range row.formatted {
		row.formatted[i] = ""
	}

	for _, ah := range hiers {
		m := member(data, coords, ah)
		names := stripRoot(m.NamePath, ah.root)
		captions := stripRoot(m.CaptionPath, ah.root)

		for d := 0; d < ah.levels; d++ {
			col := ah.firstCol + d
			if d < len(names) {
				row.names[col] = ah.hierarchy.Levels[d].Type.Coerce(names[d])
				row.captions[col] = captions[d]
			} else {
				row.captions[col] = ""
			}
		}
		if len(names) == 0 && ah.levels > 0 {
			row.captions[ah.firstCol] = TotalLabel
		}
	}
	return row
}

func stripRoot(path []string, root int) []string {
	if len(path) <= root {
		return nil
	}
	return path[root:]
}

func anyStyled(cells []cellset.Cell) bool {
	for _, c := range cells {
		if c.HasStyle() {
			return true
		}
	}
	return false
}

func assemble(index, measures []Column, rows []*rowBuilder, styled bool) *TabularResult {
	names := newTable(index, measures)
	captions := newTable(index, measures)
	r := &TabularResult{
		names:    names,
		captions: captions,
		totals:   make([]bool, len(rows)),
	}
	if styled {
		r.styleSrc = make([][]*cellset.CellProperties, len(rows))
		r.captionIndex = make([][]any, len(rows))
	}

	for i, row := range rows {
		names.rows = append(names.rows, append(row.names, row.values...))
		captions.rows = append(captions.rows, append(row.captions, row.formatted...))
		r.totals[i] = row.total
		if styled {
			r.styleSrc[i] = row.styles
			r.captionIndex[i] = row.captions
		}
	}
	r.base = names.Revision()
	return r
}
