package condition

import (
	"errors"
	"strconv"

	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// Kind names a condition kind in its serialized form.
type Kind string

const (
	KindLevel         Kind = "level"
	KindLevelIsIn     Kind = "isin"
	KindHierarchyIsIn Kind = "hierarchy_isin"
	KindMeasure       Kind = "measure"
)

// Spec is the serialized description of one condition, as written in YAML
// scenarios, CLI flags and HTTP request bodies.
//
//   - {kind: level, level: City/City/City, value: Paris}
//   - {kind: isin, level: Currency, values: [EUR, USD]}
//   - {kind: hierarchy_isin, hierarchy: Date/Date, paths: [["2020", "Jan"]]}
//   - {kind: measure, measure: Price.SUM, op: ">", value: 100}
//
// Level and hierarchy references are resolved against a cube with
// Cube.ResolveLevel and Cube.ResolveHierarchy.
type Spec struct {
	Kind      Kind    `json:"kind" yaml:"kind"`
	Level     string  `json:"level,omitempty" yaml:"level,omitempty"`
	Hierarchy string  `json:"hierarchy,omitempty" yaml:"hierarchy,omitempty"`
	Measure   string  `json:"measure,omitempty" yaml:"measure,omitempty"`
	Op        string  `json:"op,omitempty" yaml:"op,omitempty"`
	Value     any     `json:"value,omitempty" yaml:"value,omitempty"`
	Values    []any   `json:"values,omitempty" yaml:"values,omitempty"`
	Paths     [][]any `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Build resolves the names in s against c and constructs the condition.
func (s Spec) Build(c *cube.Cube) (Condition, error) {
	switch s.Kind {
	case KindLevel, "":
		level, err := c.ResolveLevel(s.Level)
		if err != nil {
			return nil, err
		}
		op, err := ParseOp(s.Op)
		if err != nil {
			return nil, err
		}
		return LevelCompare(level.Key(), op, s.Value)

	case KindLevelIsIn:
		level, err := c.ResolveLevel(s.Level)
		if err != nil {
			return nil, err
		}
		return LevelIsIn(level.Key(), s.Values...)

	case KindHierarchyIsIn:
		h, err := c.ResolveHierarchy(s.Hierarchy)
		if err != nil {
			return nil, err
		}
		return HierarchyIsIn(h, s.Paths...)

	case KindMeasure:
		if _, err := c.Measure(s.Measure); err != nil {
			return nil, err
		}
		op, err := ParseOp(s.Op)
		if err != nil {
			return nil, err
		}
		return MeasureCompare(s.Measure, op, s.Value)

	default:
		return nil, qerr.InvalidArgument("unknown condition kind %q", s.Kind)
	}
}

// BuildAll builds every spec and conjoins the results. An empty list yields
// an empty MultiCondition.
func BuildAll(c *cube.Cube, specs []Spec) (MultiCondition, error) {
	conds := make([]Condition, 0, len(specs))
	for i, s := range specs {
		cond, err := s.Build(c)
		if err != nil {
			var qe *qerr.Error
			if errors.As(err, &qe) {
				return MultiCondition{}, qe.With("condition", strconv.Itoa(i))
			}
			return MultiCondition{}, err
		}
		conds = append(conds, cond)
	}
	return And(conds...), nil
}
