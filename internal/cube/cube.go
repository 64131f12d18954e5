// Package cube is the schema model of a multidimensional cube: dimensions,
// hierarchies, levels and measures, plus the lookups the query compiler and
// the result materializer resolve names against.
//
// Cubes come from the engine's discovery document (DecodeDiscovery) or from
// CUE definitions (LoadCUE). Both produce immutable values.
package cube

import (
	"fmt"
	"strings"

	"github.com/roach88/pivotql/internal/qerr"
)

// New assembles a cube, filling in the owner names and depths of every
// hierarchy and level. Level captions default to the level name and measure
// captions to the measure name.
func New(name string, dimensions []*Dimension, measures []*Measure) (*Cube, error) {
	if name == "" {
		return nil, fmt.Errorf("cube name is required")
	}

	seenDims := make(map[string]bool, len(dimensions))
	for _, d := range dimensions {
		if d.Name == "" {
			return nil, fmt.Errorf("cube %q: dimension name is required", name)
		}
		if d.Name == MeasuresDimension {
			return nil, fmt.Errorf("cube %q: dimension name %q is reserved", name, d.Name)
		}
		if seenDims[d.Name] {
			return nil, fmt.Errorf("cube %q: duplicate dimension %q", name, d.Name)
		}
		seenDims[d.Name] = true

		seenHiers := make(map[string]bool, len(d.Hierarchies))
		for _, h := range d.Hierarchies {
			if seenHiers[h.Name] {
				return nil, fmt.Errorf("cube %q: duplicate hierarchy %s", name, HierarchyKey{d.Name, h.Name})
			}
			seenHiers[h.Name] = true
			h.Dimension = d.Name
			if err := finishHierarchy(h); err != nil {
				return nil, fmt.Errorf("cube %q: %w", name, err)
			}
		}
	}

	seenMeasures := make(map[string]bool, len(measures))
	for _, m := range measures {
		if m.Name == "" {
			return nil, fmt.Errorf("cube %q: measure name is required", name)
		}
		if seenMeasures[m.Name] {
			return nil, fmt.Errorf("cube %q: duplicate measure %q", name, m.Name)
		}
		seenMeasures[m.Name] = true
		if m.Caption == "" {
			m.Caption = m.Name
		}
	}

	return &Cube{Name: name, Dimensions: dimensions, Measures: measures}, nil
}

func finishHierarchy(h *Hierarchy) error {
	if h.Name == "" {
		return fmt.Errorf("dimension %q: hierarchy name is required", h.Dimension)
	}
	if len(h.Levels) == 0 {
		return fmt.Errorf("hierarchy %s has no levels", h.Key())
	}
	seen := make(map[string]bool, len(h.Levels))
	for i, l := range h.Levels {
		if l.Name == "" {
			return fmt.Errorf("hierarchy %s: level %d has no name", h.Key(), i)
		}
		if seen[l.Name] {
			return fmt.Errorf("hierarchy %s: duplicate level %q", h.Key(), l.Name)
		}
		seen[l.Name] = true
		l.Dimension = h.Dimension
		l.Hierarchy = h.Name
		l.depth = i
		if l.Caption == "" {
			l.Caption = l.Name
		}
	}
	return nil
}

// NewBranchHierarchy returns the reserved scenario hierarchy. Engines expose
// it as a slicing hierarchy with a single opaque level.
func NewBranchHierarchy() *Hierarchy {
	return &Hierarchy{
		Dimension: BranchDimension,
		Name:      BranchHierarchy,
		Slicing:   true,
		Levels: []*Level{{
			Dimension: BranchDimension,
			Hierarchy: BranchHierarchy,
			Name:      BranchLevel,
			Caption:   BranchLevel,
		}},
	}
}

// Hierarchy returns the hierarchy with the given key.
//
// The branching hierarchy resolves even when the cube does not declare it.
func (c *Cube) Hierarchy(key HierarchyKey) (*Hierarchy, error) {
	for _, d := range c.Dimensions {
		if d.Name != key.Dimension {
			continue
		}
		for _, h := range d.Hierarchies {
			if h.Name == key.Hierarchy {
				return h, nil
			}
		}
	}
	if key.IsBranch() {
		return NewBranchHierarchy(), nil
	}
	return nil, qerr.SchemaLookup("hierarchy %s not found in cube %q", key, c.Name)
}

// Level returns the level with the given key.
func (c *Cube) Level(key LevelKey) (*Level, error) {
	h, err := c.Hierarchy(key.HierarchyKey())
	if err != nil {
		return nil, err
	}
	for _, l := range h.Levels {
		if l.Name == key.Level {
			return l, nil
		}
	}
	return nil, qerr.SchemaLookup("level %s not found in cube %q", key, c.Name)
}

// Measure returns the measure with the given name.
func (c *Cube) Measure(name string) (*Measure, error) {
	for _, m := range c.Measures {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, qerr.SchemaLookup("measure %q not found in cube %q", name, c.Name)
}

// Hierarchies returns every hierarchy in declaration order.
func (c *Cube) Hierarchies() []*Hierarchy {
	var out []*Hierarchy
	for _, d := range c.Dimensions {
		out = append(out, d.Hierarchies...)
	}
	return out
}

// ResolveHierarchy resolves a textual hierarchy reference. Accepted forms
// are "Dim/Hier", "[Dim].[Hier]" and a bare hierarchy name, which must be
// unique across dimensions.
func (c *Cube) ResolveHierarchy(ref string) (*Hierarchy, error) {
	parts, err := splitRef(ref)
	if err != nil {
		return nil, err
	}
	switch len(parts) {
	case 2:
		return c.Hierarchy(HierarchyKey{Dimension: parts[0], Hierarchy: parts[1]})
	case 1:
		var found []*Hierarchy
		for _, h := range c.Hierarchies() {
			if h.Name == parts[0] {
				found = append(found, h)
			}
		}
		return pickOne(found, "hierarchy", ref, c.Name)
	default:
		return nil, qerr.SchemaLookup("invalid hierarchy reference %q", ref)
	}
}

// ResolveLevel resolves a textual level reference. Accepted forms are
// "Dim/Hier/Level", "[Dim].[Hier].[Level]", "Hier/Level" and a bare level
// name; partial forms must be unambiguous.
func (c *Cube) ResolveLevel(ref string) (*Level, error) {
	parts, err := splitRef(ref)
	if err != nil {
		return nil, err
	}
	switch len(parts) {
	case 3:
		return c.Level(LevelKey{Dimension: parts[0], Hierarchy: parts[1], Level: parts[2]})
	case 2, 1:
		var found []*Level
		for _, h := range c.Hierarchies() {
			if len(parts) == 2 && h.Name != parts[0] {
				continue
			}
			for _, l := range h.Levels {
				if l.Name == parts[len(parts)-1] {
					found = append(found, l)
				}
			}
		}
		return pickOne(found, "level", ref, c.Name)
	default:
		return nil, qerr.SchemaLookup("invalid level reference %q", ref)
	}
}

func pickOne[T any](found []*T, kind, ref, cubeName string) (*T, error) {
	switch len(found) {
	case 0:
		return nil, qerr.SchemaLookup("%s %q not found in cube %q", kind, ref, cubeName)
	case 1:
		return found[0], nil
	default:
		return nil, qerr.SchemaLookup("%s reference %q is ambiguous in cube %q (%d matches)", kind, ref, cubeName, len(found))
	}
}

// splitRef splits "a/b/c" or "[a].[b].[c]" into its segments.
func splitRef(ref string) ([]string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, qerr.SchemaLookup("empty reference")
	}
	if !strings.HasPrefix(ref, "[") {
		return strings.Split(ref, "/"), nil
	}

	var parts []string
	for i := 0; i < len(ref); {
		if ref[i] != '[' {
			return nil, qerr.SchemaLookup("invalid bracketed reference %q", ref)
		}
		var sb strings.Builder
		j := i + 1
		closed := false
		for j < len(ref) {
			if ref[j] == ']' {
				if j+1 < len(ref) && ref[j+1] == ']' {
					sb.WriteByte(']')
					j += 2
					continue
				}
				closed = true
				break
			}
			sb.WriteByte(ref[j])
			j++
		}
		if !closed {
			return nil, qerr.SchemaLookup("unterminated bracket in reference %q", ref)
		}
		parts = append(parts, sb.String())
		i = j + 1
		if i < len(ref) {
			if ref[i] != '.' {
				return nil, qerr.SchemaLookup("invalid bracketed reference %q", ref)
			}
			i++
		}
	}
	return parts, nil
}

// Cube returns the cube with the given name. An empty name selects the only
// cube of a single-cube discovery.
func (d *Discovery) Cube(name string) (*Cube, error) {
	if name == "" {
		if len(d.Cubes) == 1 {
			return d.Cubes[0], nil
		}
		return nil, qerr.SchemaLookup("discovery has %d cubes; a cube name is required", len(d.Cubes))
	}
	for _, c := range d.Cubes {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, qerr.SchemaLookup("cube %q not found", name)
}
