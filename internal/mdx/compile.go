// Package mdx compiles a declarative selection over a cube into MDX text.
//
// Compile resolves every name against the cube, then assembles a small
// query tree:
//
//	SELECT {columns} ON COLUMNS[, NON EMPTY rows ON ROWS] FROM chain
//
// Columns are the requested measures (all measures when none are named).
// Rows cross the deepest requested level of each hierarchy. Every level or
// hierarchy condition, and the scenario when it is not the base one, becomes
// a sub-select wrapped around the cube. Sub-selects intersect, so their
// nesting order does not change which cells are returned; Query.Admits
// evaluates that intersection locally.
package mdx

import (
	"fmt"

	"github.com/roach88/pivotql/internal/condition"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// Compile builds the query for the given selection.
//
// measures are measure names; rows are the levels to group by, in the
// caller's order. includeTotals requests subtotal and grand-total rows on
// non-slicing hierarchies. scenario selects a branch; "" and
// cube.BaseScenario select the base data.
func Compile(c *cube.Cube, measures []string, rows []cube.LevelKey, d condition.Decombined, includeTotals bool, scenario string) (*Query, error) {
	if err := d.RequireCompilable(); err != nil {
		return nil, err
	}

	q := &Query{Cube: c.Name}

	columns, err := compileColumns(c, measures)
	if err != nil {
		return nil, err
	}
	q.Columns = columns

	rowSet, err := compileRows(c, rows, includeTotals)
	if err != nil {
		return nil, err
	}
	q.Rows = rowSet

	filters, err := compileFilters(c, d)
	if err != nil {
		return nil, err
	}
	q.Filters = filters

	if scenario != "" && scenario != cube.BaseScenario {
		q.Filters = append(q.Filters, Filter{
			Hierarchy: cube.HierarchyKey{Dimension: cube.BranchDimension, Hierarchy: cube.BranchHierarchy},
			Slicing:   true,
			Paths:     [][]string{{scenario}},
		})
	}
	return q, nil
}

func compileColumns(c *cube.Cube, measures []string) (Set, error) {
	key := cube.HierarchyKey{Dimension: cube.MeasuresDimension, Hierarchy: cube.MeasuresDimension}
	if len(measures) == 0 {
		return AllMembers{Hierarchy: key}, nil
	}
	set := Members{Members: make([]Member, 0, len(measures))}
	for _, name := range measures {
		m, err := c.Measure(name)
		if err != nil {
			return nil, err
		}
		set.Members = append(set.Members, Member{Hierarchy: key, Path: []string{m.Name}})
	}
	return set, nil
}

// compileRows keeps the deepest requested level of every hierarchy, with
// hierarchies in first-seen order.
func compileRows(c *cube.Cube, rows []cube.LevelKey, includeTotals bool) (Set, error) {
	type pick struct {
		hierarchy *cube.Hierarchy
		level     *cube.Level
	}
	var order []cube.HierarchyKey
	picks := make(map[cube.HierarchyKey]*pick)

	for _, key := range rows {
		level, err := c.Level(key)
		if err != nil {
			return nil, err
		}
		hkey := key.HierarchyKey()
		p, ok := picks[hkey]
		if !ok {
			h, err := c.Hierarchy(hkey)
			if err != nil {
				return nil, err
			}
			picks[hkey] = &pick{hierarchy: h, level: level}
			order = append(order, hkey)
			continue
		}
		if level.Depth() > p.level.Depth() {
			p.level = level
		}
	}

	sets := make([]Set, 0, len(order))
	for _, hkey := range order {
		p := picks[hkey]
		if p.hierarchy.Slicing || !includeTotals {
			sets = append(sets, LevelMembers{Level: p.level.Key()})
			continue
		}
		sets = append(sets, Descendants{Hierarchy: hkey, Depth: p.level.Depth() + 1})
	}

	switch len(sets) {
	case 0:
		return nil, nil
	case 1:
		return sets[0], nil
	default:
		return Crossjoin{Sets: sets}, nil
	}
}

func compileFilters(c *cube.Cube, d condition.Decombined) ([]Filter, error) {
	var filters []Filter

	for _, lc := range d.Levels {
		h, err := shallowestLevel(c, lc.Level)
		if err != nil {
			return nil, err
		}
		if lc.Op != condition.OpEq {
			return nil, qerr.UnsupportedCondition("operator %s on %s cannot be compiled; only equality and membership are supported", lc.Op, lc.Level).
				With("level", lc.Level.String())
		}
		name, err := stringLiteral(lc.Level, lc.Value)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Filter{Hierarchy: h.Key(), Slicing: h.Slicing, Paths: [][]string{{name}}})
	}

	for _, li := range d.LevelIsIns {
		h, err := shallowestLevel(c, li.Level)
		if err != nil {
			return nil, err
		}
		paths := make([][]string, len(li.Values))
		for i, v := range li.Values {
			name, err := stringLiteral(li.Level, v)
			if err != nil {
				return nil, err
			}
			paths[i] = []string{name}
		}
		filters = append(filters, Filter{Hierarchy: h.Key(), Slicing: h.Slicing, Paths: paths})
	}

	for _, hi := range d.HierarchyIsIns {
		h, err := c.Hierarchy(hi.Hierarchy)
		if err != nil {
			return nil, err
		}
		paths := make([][]string, len(hi.Paths))
		for i, p := range hi.Paths {
			if len(p) > len(h.Levels) {
				return nil, qerr.InvalidArgument("path %d on %s is longer than the hierarchy", i, hi.Hierarchy)
			}
			path := make([]string, len(p))
			for j, v := range p {
				name, err := stringLiteral(h.Levels[j].Key(), v)
				if err != nil {
					return nil, err
				}
				path[j] = name
			}
			paths[i] = path
		}
		filters = append(filters, Filter{Hierarchy: h.Key(), Slicing: h.Slicing, Paths: paths})
	}

	return filters, nil
}

// shallowestLevel resolves the level's hierarchy and checks the level is
// its first one; member filters address the top of the hierarchy.
func shallowestLevel(c *cube.Cube, key cube.LevelKey) (*cube.Hierarchy, error) {
	level, err := c.Level(key)
	if err != nil {
		return nil, err
	}
	h, err := c.Hierarchy(key.HierarchyKey())
	if err != nil {
		return nil, err
	}
	if level.Depth() != 0 {
		return nil, qerr.UnsupportedCondition("condition on %s cannot be compiled: only the shallowest level %s of %s can be filtered",
			key, h.Shallowest().Name, h.Key()).With("level", key.String())
	}
	return h, nil
}

// stringLiteral also rejects nil: member sets have no is-null form.
func stringLiteral(level cube.LevelKey, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", qerr.UnsupportedCondition("condition on %s cannot be compiled: literal %s is %s, not a string",
			level, describe(v), typeName(v)).With("level", level.String())
	}
	return s, nil
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
