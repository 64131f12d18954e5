package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pivotql/internal/result"
)

// AssertionError is returned when an assertion fails. It carries the
// compiled query for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	MDX      string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.MDX != "" {
		fmt.Fprintf(&buf, "\nQuery:\n  %s\n", e.MDX)
	}
	return buf.String()
}

func fail(res *Result, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, MDX: res.MDX}
}

func assertMDX(res *Result, a Assertion) error {
	if res.MDX == "" {
		return fail(res, a.Type, fmt.Sprintf("compiled query %q", a.Text), describeFailure(res))
	}
	switch a.Type {
	case AssertMDXEquals:
		if res.MDX != a.Text {
			return fail(res, a.Type, a.Text, res.MDX)
		}
	case AssertMDXContains:
		if !strings.Contains(res.MDX, a.Text) {
			return fail(res, a.Type, fmt.Sprintf("query containing %q", a.Text), "not found")
		}
	}
	return nil
}

func assertErrorCode(res *Result, a Assertion) error {
	if res.Err == nil {
		return fail(res, a.Type, "error "+a.Code, "no error")
	}
	if got := res.ErrorCode(); got != a.Code {
		return fail(res, a.Type, "error "+a.Code, fmt.Sprintf("error %s: %v", got, res.Err))
	}
	return nil
}

func assertRowCount(res *Result, a Assertion) error {
	if res.Output == nil {
		return fail(res, a.Type, fmt.Sprintf("%d rows", a.Count), describeFailure(res))
	}
	if n := res.Output.Len(); n != a.Count {
		return fail(res, a.Type, fmt.Sprintf("%d rows", a.Count), fmt.Sprintf("%d rows", n))
	}
	return nil
}

func assertColumns(res *Result, a Assertion) error {
	if res.Output == nil {
		return fail(res, a.Type, fmt.Sprintf("columns %v", a.Columns), describeFailure(res))
	}
	var got []string
	for _, c := range res.Output.Names().Columns() {
		got = append(got, c.Name)
	}
	if !slices.Equal(got, a.Columns) {
		return fail(res, a.Type, fmt.Sprintf("columns %v", a.Columns), fmt.Sprintf("columns %v", got))
	}
	return nil
}

func assertCell(res *Result, a Assertion) error {
	want := fmt.Sprintf("%s[%d][%s] = %q", a.View, a.Row, a.Column, a.Value)
	if res.Output == nil {
		return fail(res, a.Type, want, describeFailure(res))
	}
	t, ok := view(res.Output, a.View)
	if !ok {
		return fail(res, a.Type, want, fmt.Sprintf("%s view unavailable", a.View))
	}
	if a.Row >= t.Len() {
		return fail(res, a.Type, want, fmt.Sprintf("only %d rows", t.Len()))
	}
	v, ok := t.Get(a.Row, a.Column)
	if !ok {
		return fail(res, a.Type, want, fmt.Sprintf("no column %q", a.Column))
	}
	if got := result.FormatValue(v); got != a.Value {
		return fail(res, a.Type, want, fmt.Sprintf("%q", got))
	}
	return nil
}

func assertTotals(res *Result, a Assertion) error {
	if res.Output == nil {
		return fail(res, a.Type, fmt.Sprintf("total rows %v", a.Rows), describeFailure(res))
	}
	got := res.Output.TotalRows()
	if !slices.Equal(got, a.Rows) {
		return fail(res, a.Type, fmt.Sprintf("total rows %v", a.Rows), fmt.Sprintf("total rows %v", got))
	}
	return nil
}

func view(r *result.TabularResult, name string) (*result.Table, bool) {
	switch name {
	case ViewCaptions:
		return r.Captions()
	case ViewStyles:
		return r.Styles()
	default:
		return r.Names(), true
	}
}

func describeFailure(res *Result) string {
	if res.Err != nil {
		return "query failed: " + res.Err.Error()
	}
	return "no result (scenario has no cellset)"
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failure.
func EvaluateAssertions(res *Result, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertMDXEquals, AssertMDXContains:
			err = assertMDX(res, a)
		case AssertErrorCode:
			err = assertErrorCode(res, a)
		case AssertRowCount:
			err = assertRowCount(res, a)
		case AssertColumns:
			err = assertColumns(res, a)
		case AssertCell:
			err = assertCell(res, a)
		case AssertTotals:
			err = assertTotals(res, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
