package condition

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// Record is one row seen by the local evaluator.
type Record interface {
	// LevelValue returns the member of the level on this row. ok is false
	// when the level is not part of the record.
	LevelValue(key cube.LevelKey) (value any, ok bool)

	// HierarchyPath returns the member path of the hierarchy on this row,
	// shallowest first, without the implicit root.
	HierarchyPath(key cube.HierarchyKey) (path []any, ok bool)

	// MeasureValue returns the measure's value on this row.
	MeasureValue(name string) (value any, ok bool)
}

// Evaluate reports whether r satisfies c. Unlike the compiler it accepts
// every operator and measure predicates. A condition naming a level,
// hierarchy or measure the record does not carry fails with a
// SchemaLookupFailure error.
func Evaluate(c Condition, r Record) (bool, error) {
	d := Decombine(c)
	for _, lc := range d.Levels {
		v, ok := r.LevelValue(lc.Level)
		if !ok {
			return false, qerr.SchemaLookup("level %s is not part of the record", lc.Level)
		}
		if !compareOp(v, lc.Op, lc.Value) {
			return false, nil
		}
	}
	for _, li := range d.LevelIsIns {
		v, ok := r.LevelValue(li.Level)
		if !ok {
			return false, qerr.SchemaLookup("level %s is not part of the record", li.Level)
		}
		if !containsValue(li.Values, v) {
			return false, nil
		}
	}
	for _, hi := range d.HierarchyIsIns {
		path, ok := r.HierarchyPath(hi.Hierarchy)
		if !ok {
			return false, qerr.SchemaLookup("hierarchy %s is not part of the record", hi.Hierarchy)
		}
		if !PathAdmitted(hi.Paths, path) {
			return false, nil
		}
	}
	for _, mc := range d.Measures {
		v, ok := r.MeasureValue(mc.Measure)
		if !ok {
			return false, qerr.SchemaLookup("measure %q is not part of the record", mc.Measure)
		}
		if !compareOp(v, mc.Op, mc.Value) {
			return false, nil
		}
	}
	return true, nil
}

// PathAdmitted reports whether a member path survives a member-set filter.
// A member is kept when it is a selected member, a descendant of one, or an
// ancestor of one (the roll-up over the selection).
func PathAdmitted(selected [][]any, path []any) bool {
	for _, sel := range selected {
		n := min(len(sel), len(path))
		match := true
		for i := 0; i < n; i++ {
			if !Equal(sel[i], path[i]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func containsValue(set []any, v any) bool {
	for _, s := range set {
		if Equal(s, v) {
			return true
		}
	}
	return false
}

func compareOp(actual any, op Op, literal any) bool {
	if literal == nil || actual == nil {
		bothNull := literal == nil && actual == nil
		switch op {
		case OpEq:
			return bothNull
		case OpNe:
			return !bothNull
		default:
			return false
		}
	}
	cmp, ok := Compare(actual, literal)
	if !ok {
		// Incomparable values are only ever unequal.
		return op == OpNe
	}
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// Equal reports whether two literal values are equal under Compare.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// Compare orders two non-nil values. Numbers of any Go type compare
// numerically, times chronologically (a string is parsed as a date or
// timestamp when compared with a time), booleans false before true, and
// everything else by its string form. ok is false when the values cannot
// be ordered against each other.
func Compare(a, b any) (int, bool) {
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db), true
		}
		if s, ok := b.(string); ok {
			if db, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
				return da.Cmp(db), true
			}
		}
		return 0, false
	}
	if _, ok := toDecimal(b); ok {
		cmp, ok := Compare(b, a)
		return -cmp, ok
	}

	if ta, ok := toTime(a, b); ok {
		if tb, ok := toTime(b, a); ok {
			return ta.Compare(tb), true
		}
		return 0, false
	}

	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		default:
			return 1, true
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateTime, time.DateOnly}

// toTime converts v to a time when v is a time, or when v is a string and
// other is a time.
func toTime(v, other any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case string:
		if _, isTime := other.(time.Time); !isTime {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
