// Package cellset models the engine's structured query response: axes of
// positions of members, plus a flat list of valued cells addressed by
// ordinal.
//
// The JSON shape (axes, cells, cube, defaultMembers) is fixed by the engine;
// Decode reads it and Validate checks it is internally consistent.
package cellset

import (
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// SlicerAxisID is the id of the slicer (filter) axis. It never contributes
// to cell ordinals.
const SlicerAxisID = -1

// Cellset is one query response. It is produced once per execution and
// consumed once.
type Cellset struct {
	Cube           string          `json:"cube"`
	Axes           []Axis          `json:"axes"`
	Cells          []Cell          `json:"cells"`
	DefaultMembers []DefaultMember `json:"defaultMembers"`
}

// Axis is one side of the result grid.
type Axis struct {
	ID          int                 `json:"id"`
	Hierarchies []cube.HierarchyKey `json:"hierarchies"`

	// Positions holds one member per hierarchy, aligned with Hierarchies.
	Positions [][]Member `json:"positions"`
}

// Member is one coordinate value. Paths run from the shallowest ancestor to
// the member itself; for non-slicing hierarchies the raw path starts with
// the implicit root.
type Member struct {
	NamePath    []string `json:"namePath"`
	CaptionPath []string `json:"captionPath"`
}

// DefaultMember is the member used for a hierarchy absent from every axis,
// typically the default measure when no measure was requested.
type DefaultMember struct {
	Dimension   string   `json:"dimension"`
	Hierarchy   string   `json:"hierarchy"`
	Path        []string `json:"path"`
	CaptionPath []string `json:"captionPath,omitempty"`
}

// Cell is one valued cell.
type Cell struct {
	Ordinal        int
	Value          any // nil, string, bool, decimal.Decimal or decoded JSON
	FormattedValue string
	Properties     *CellProperties
}

// HasStyle reports whether the cell carries any style property.
func (c Cell) HasStyle() bool {
	return c.Properties != nil && !c.Properties.IsZero()
}

// DataAxes returns the non-slicer axes in listed order. Their order defines
// how ordinals decode.
func (cs *Cellset) DataAxes() []Axis {
	axes := make([]Axis, 0, len(cs.Axes))
	for _, a := range cs.Axes {
		if a.ID != SlicerAxisID {
			axes = append(axes, a)
		}
	}
	return axes
}

// DefaultMeasure returns the name and caption of the default measure.
func (cs *Cellset) DefaultMeasure() (name, caption string, ok bool) {
	for _, dm := range cs.DefaultMembers {
		if dm.Dimension != cube.MeasuresDimension || len(dm.Path) == 0 {
			continue
		}
		name = dm.Path[len(dm.Path)-1]
		caption = name
		if len(dm.CaptionPath) > 0 {
			caption = dm.CaptionPath[len(dm.CaptionPath)-1]
		}
		return name, caption, true
	}
	return "", "", false
}

// CellCount returns the number of addressable cells: the product of the
// data axes' position counts, or 1 when there is no data axis.
func CellCount(axes []Axis) int {
	n := 1
	for _, a := range axes {
		n *= len(a.Positions)
	}
	return n
}

// Coordinates decodes a flat ordinal into one position index per axis by
// repeated divmod over axes in the order given; the first axis varies
// fastest.
func Coordinates(ordinal int, axes []Axis) ([]int, error) {
	if ordinal < 0 {
		return nil, qerr.MalformedCellset("negative cell ordinal %d", ordinal)
	}
	coords := make([]int, len(axes))
	rest := ordinal
	for i, a := range axes {
		count := len(a.Positions)
		if count == 0 {
			return nil, qerr.MalformedCellset("cell ordinal %d addresses axis %d, which has no positions", ordinal, a.ID)
		}
		coords[i] = rest % count
		rest /= count
	}
	if rest != 0 {
		return nil, qerr.MalformedCellset("cell ordinal %d out of range for %d cells", ordinal, CellCount(axes))
	}
	return coords, nil
}

// Validate checks the cellset is internally consistent: one member per
// hierarchy in every position, name and caption paths of equal length,
// unique axis ids and every ordinal inside the declared cross product.
func (cs *Cellset) Validate() error {
	seen := make(map[int]bool, len(cs.Axes))
	for _, a := range cs.Axes {
		if seen[a.ID] {
			return qerr.MalformedCellset("duplicate axis id %d", a.ID)
		}
		seen[a.ID] = true
		if len(a.Hierarchies) == 0 && len(a.Positions) > 0 {
			return qerr.MalformedCellset("axis %d has positions but no hierarchies", a.ID)
		}
		for p, pos := range a.Positions {
			if len(pos) != len(a.Hierarchies) {
				return qerr.MalformedCellset("axis %d position %d has %d members for %d hierarchies",
					a.ID, p, len(pos), len(a.Hierarchies))
			}
			for h, m := range pos {
				if len(m.CaptionPath) != len(m.NamePath) {
					return qerr.MalformedCellset("axis %d position %d hierarchy %s: name path and caption path differ in length",
						a.ID, p, a.Hierarchies[h])
				}
			}
		}
	}

	total := CellCount(cs.DataAxes())
	for _, c := range cs.Cells {
		if c.Ordinal < 0 || c.Ordinal >= total {
			return qerr.MalformedCellset("cell ordinal %d out of range for %d cells", c.Ordinal, total).
				With("ordinal", itoa(c.Ordinal))
		}
	}
	return nil
}
