// Package condition implements the filter-condition algebra: level
// comparisons, level membership, hierarchy member-path membership and
// measure predicates, combined under conjunction.
//
// Condition is a sealed interface. Only types in this package implement it,
// which keeps type switches in the compiler and the local evaluator
// exhaustive.
//
// Conjunction never builds a tree. And merges its operands into a single
// MultiCondition holding one list per kind:
//
//	c, _ := condition.LevelEq(city, "Paris")
//	m, _ := condition.LevelIsIn(currency, "EUR", "USD")
//	all := condition.And(c, m) // MultiCondition{Levels: [c], LevelIsIns: [m]}
//
// Construction validates shape (null placeholders, path lengths, empty
// sets) and fails with an InvalidArgument error. Whether a condition can be
// compiled to query text is decided later, by the compiler; a condition the
// compiler rejects is still valid for local evaluation.
package condition

import (
	"fmt"
	"strings"

	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// Condition is a filter over cube members or measure values.
type Condition interface {
	conditionNode() // seals the interface to this package
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// ParseOp parses an operator. "=" is accepted as OpEq and "" defaults to
// OpEq.
func ParseOp(s string) (Op, error) {
	switch s {
	case "", "=", "==":
		return OpEq, nil
	case "!=", "<>":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	default:
		return "", qerr.InvalidArgument("unknown comparison operator %q", s)
	}
}

// LevelCondition compares the members of a level with a literal.
//
// A nil Value is a null check: OpEq means "is null", OpNe "is not null".
type LevelCondition struct {
	Level cube.LevelKey
	Op    Op
	Value any
}

func (LevelCondition) conditionNode() {}

// IsNullCheck reports whether the condition tests for null rather than
// comparing against a literal.
func (c LevelCondition) IsNullCheck() bool {
	return c.Value == nil
}

func (c LevelCondition) String() string {
	return fmt.Sprintf("%s %s %s", c.Level, c.Op, literal(c.Value))
}

// LevelMembership requires a level's member to be one of Values.
type LevelMembership struct {
	Level  cube.LevelKey
	Values []any
}

func (LevelMembership) conditionNode() {}

func (c LevelMembership) String() string {
	return fmt.Sprintf("%s isin %s", c.Level, literals(c.Values))
}

// HierarchyMembership requires a hierarchy's member to lie on one of Paths.
// Each path runs from the shallowest level downwards and may be shorter
// than the hierarchy.
type HierarchyMembership struct {
	Hierarchy cube.HierarchyKey
	Paths     [][]any
}

func (HierarchyMembership) conditionNode() {}

func (c HierarchyMembership) String() string {
	parts := make([]string, len(c.Paths))
	for i, p := range c.Paths {
		parts[i] = literals(p)
	}
	return fmt.Sprintf("%s isin [%s]", c.Hierarchy, strings.Join(parts, ", "))
}

// MeasureCondition compares a measure's value with a literal. It can be
// evaluated locally but never compiled to query text.
type MeasureCondition struct {
	Measure string
	Op      Op
	Value   any
}

func (MeasureCondition) conditionNode() {}

func (c MeasureCondition) String() string {
	return fmt.Sprintf("[Measures].[%s] %s %s", c.Measure, c.Op, literal(c.Value))
}

// MultiCondition is the conjunction of its parts, one list per kind.
type MultiCondition struct {
	Levels         []LevelCondition
	LevelIsIns     []LevelMembership
	HierarchyIsIns []HierarchyMembership
	Measures       []MeasureCondition
}

func (MultiCondition) conditionNode() {}

// Len returns the number of conjuncts.
func (m MultiCondition) Len() int {
	return len(m.Levels) + len(m.LevelIsIns) + len(m.HierarchyIsIns) + len(m.Measures)
}

// LevelEq builds an equality condition on a level.
func LevelEq(level cube.LevelKey, value any) (LevelCondition, error) {
	return LevelCompare(level, OpEq, value)
}

// LevelCompare builds a comparison on a level. Comparing against nil is
// only valid for OpEq and OpNe.
func LevelCompare(level cube.LevelKey, op Op, value any) (LevelCondition, error) {
	if err := checkOp(op, value); err != nil {
		return LevelCondition{}, err.With("level", level.String())
	}
	return LevelCondition{Level: level, Op: op, Value: value}, nil
}

// LevelIsIn builds a membership condition on a level. The set must be
// non-empty and must not contain nil.
func LevelIsIn(level cube.LevelKey, values ...any) (LevelMembership, error) {
	if len(values) == 0 {
		return LevelMembership{}, qerr.InvalidArgument("isin on %s: empty value set", level)
	}
	for i, v := range values {
		if v == nil {
			return LevelMembership{}, qerr.InvalidArgument("isin on %s: null placeholder at position %d", level, i)
		}
	}
	return LevelMembership{Level: level, Values: append([]any(nil), values...)}, nil
}

// HierarchyIsIn builds a member-path membership condition on a hierarchy.
// Every path must be non-empty, free of nil and no longer than the
// hierarchy's level count.
func HierarchyIsIn(h *cube.Hierarchy, paths ...[]any) (HierarchyMembership, error) {
	key := h.Key()
	if len(paths) == 0 {
		return HierarchyMembership{}, qerr.InvalidArgument("isin on %s: empty path set", key)
	}
	out := make([][]any, len(paths))
	for i, p := range paths {
		if len(p) == 0 {
			return HierarchyMembership{}, qerr.InvalidArgument("isin on %s: path %d is empty", key, i)
		}
		if len(p) > len(h.Levels) {
			return HierarchyMembership{}, qerr.InvalidArgument(
				"isin on %s: path %s has %d members but the hierarchy has %d levels",
				key, literals(p), len(p), len(h.Levels))
		}
		for j, v := range p {
			if v == nil {
				return HierarchyMembership{}, qerr.InvalidArgument("isin on %s: null placeholder in path %d at depth %d", key, i, j)
			}
		}
		out[i] = append([]any(nil), p...)
	}
	return HierarchyMembership{Hierarchy: key, Paths: out}, nil
}

// MeasureCompare builds a measure predicate.
func MeasureCompare(measure string, op Op, value any) (MeasureCondition, error) {
	if err := checkOp(op, value); err != nil {
		return MeasureCondition{}, err.With("measure", measure)
	}
	return MeasureCondition{Measure: measure, Op: op, Value: value}, nil
}

func checkOp(op Op, value any) *qerr.Error {
	switch op {
	case OpEq, OpNe:
		return nil
	case OpLt, OpLe, OpGt, OpGe:
		if value == nil {
			return qerr.InvalidArgument("operator %s cannot compare against null", op)
		}
		return nil
	default:
		return qerr.InvalidArgument("unknown comparison operator %q", op)
	}
}

// And conjoins conditions into one flat MultiCondition. MultiCondition
// operands contribute their lists; any other operand is a singleton list.
// Nil operands are ignored.
func And(conds ...Condition) MultiCondition {
	var out MultiCondition
	for _, c := range conds {
		out.merge(c)
	}
	return out
}

func (m *MultiCondition) merge(c Condition) {
	switch c := c.(type) {
	case nil:
	case LevelCondition:
		m.Levels = append(m.Levels, c)
	case LevelMembership:
		m.LevelIsIns = append(m.LevelIsIns, c)
	case HierarchyMembership:
		m.HierarchyIsIns = append(m.HierarchyIsIns, c)
	case MeasureCondition:
		m.Measures = append(m.Measures, c)
	case MultiCondition:
		m.Levels = append(m.Levels, c.Levels...)
		m.LevelIsIns = append(m.LevelIsIns, c.LevelIsIns...)
		m.HierarchyIsIns = append(m.HierarchyIsIns, c.HierarchyIsIns...)
		m.Measures = append(m.Measures, c.Measures...)
	case *MultiCondition:
		if c != nil {
			m.merge(*c)
		}
	default:
		panic(fmt.Sprintf("condition: unknown condition type %T", c))
	}
}

// Decombined is a condition split into its four parallel lists.
type Decombined struct {
	Levels         []LevelCondition
	LevelIsIns     []LevelMembership
	HierarchyIsIns []HierarchyMembership
	Measures       []MeasureCondition
}

// Decombine splits c into per-kind lists. A nil condition decombines to
// empty lists.
func Decombine(c Condition) Decombined {
	m := And(c)
	return Decombined{
		Levels:         m.Levels,
		LevelIsIns:     m.LevelIsIns,
		HierarchyIsIns: m.HierarchyIsIns,
		Measures:       m.Measures,
	}
}

// IsEmpty reports whether there are no conditions at all.
func (d Decombined) IsEmpty() bool {
	return len(d.Levels)+len(d.LevelIsIns)+len(d.HierarchyIsIns)+len(d.Measures) == 0
}

// RequireCompilable fails when measure predicates are present, since they
// cannot be expressed in compiled query text.
func (d Decombined) RequireCompilable() error {
	if len(d.Measures) == 0 {
		return nil
	}
	return qerr.UnsupportedCondition("measure condition %s cannot be compiled to query text", d.Measures[0]).
		With("measure", d.Measures[0].Measure)
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}

func literals(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = literal(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
