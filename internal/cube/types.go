package cube

import "fmt"

// MeasuresDimension is the reserved dimension (and hierarchy) holding the
// cube's measures on a cellset axis.
const MeasuresDimension = "Measures"

// Reserved branching hierarchy used to select a scenario.
const (
	BranchDimension = "Epoch"
	BranchHierarchy = "Epoch"
	BranchLevel     = "Branch"

	// BaseScenario is the default scenario; selecting it adds no filter.
	BaseScenario = "Base"
)

// HierarchyKey identifies a hierarchy within a cube.
type HierarchyKey struct {
	Dimension string `json:"dimension" yaml:"dimension"`
	Hierarchy string `json:"hierarchy" yaml:"hierarchy"`
}

// String returns the MDX-like display form, e.g. "[Date].[Date]".
// Brackets are not escaped; use mdx.Quote for query text.
func (k HierarchyKey) String() string {
	return fmt.Sprintf("[%s].[%s]", k.Dimension, k.Hierarchy)
}

// IsMeasures reports whether k is the Measures hierarchy.
func (k HierarchyKey) IsMeasures() bool {
	return k.Dimension == MeasuresDimension
}

// IsBranch reports whether k is the reserved branching hierarchy.
func (k HierarchyKey) IsBranch() bool {
	return k.Dimension == BranchDimension && k.Hierarchy == BranchHierarchy
}

// LevelKey identifies a level within a cube.
type LevelKey struct {
	Dimension string `json:"dimension" yaml:"dimension"`
	Hierarchy string `json:"hierarchy" yaml:"hierarchy"`
	Level     string `json:"level" yaml:"level"`
}

// HierarchyKey returns the key of the level's owning hierarchy.
func (k LevelKey) HierarchyKey() HierarchyKey {
	return HierarchyKey{Dimension: k.Dimension, Hierarchy: k.Hierarchy}
}

func (k LevelKey) String() string {
	return fmt.Sprintf("[%s].[%s].[%s]", k.Dimension, k.Hierarchy, k.Level)
}

// Cube is a named multidimensional schema. A Cube is immutable once built
// and may be shared freely between goroutines.
type Cube struct {
	Name       string
	Dimensions []*Dimension
	Measures   []*Measure
}

// Dimension groups hierarchies.
type Dimension struct {
	Name        string
	Hierarchies []*Hierarchy
}

// Hierarchy is an ordered chain of levels, shallowest first.
//
// A slicing hierarchy has no implicit "All" root member: every member path
// starts directly at the first level. Member paths of non-slicing
// hierarchies start with the root in raw engine data.
type Hierarchy struct {
	Dimension string
	Name      string
	Slicing   bool
	Levels    []*Level
}

// Key returns the hierarchy's identity.
func (h *Hierarchy) Key() HierarchyKey {
	return HierarchyKey{Dimension: h.Dimension, Hierarchy: h.Name}
}

// Shallowest returns the first level, or nil for a hierarchy without levels.
func (h *Hierarchy) Shallowest() *Level {
	if len(h.Levels) == 0 {
		return nil
	}
	return h.Levels[0]
}

// Level is one grouping step of a hierarchy.
type Level struct {
	Dimension string
	Hierarchy string
	Name      string
	Caption   string
	Type      LevelType

	depth int
}

// Key returns the level's identity.
func (l *Level) Key() LevelKey {
	return LevelKey{Dimension: l.Dimension, Hierarchy: l.Hierarchy, Level: l.Name}
}

// Depth returns the zero-based index of the level in its hierarchy.
func (l *Level) Depth() int {
	return l.depth
}

// Measure describes a computed value. Measures are read-only.
type Measure struct {
	Name         string
	Caption      string
	Visible      bool
	Folder       string
	FormatString string
	Description  string
}

// Discovery is the schema document fetched once per session.
type Discovery struct {
	Cubes []*Cube
}
