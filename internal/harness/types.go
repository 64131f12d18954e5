package harness

import (
	"github.com/roach88/pivotql/internal/qerr"
	"github.com/roach88/pivotql/internal/result"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// MDX is the compiled query text; empty when compilation failed.
	MDX string `json:"mdx,omitempty"`

	// Err is the compile or execution error, if any.
	Err error `json:"-"`

	// Output is the materialized result; nil without a cellset or on error.
	Output *result.TabularResult `json:"-"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failed assertion and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ErrorCode returns the code of Err, or "" when the run succeeded or
// failed without a classified error.
func (r *Result) ErrorCode() string {
	return string(qerr.CodeOf(r.Err))
}

// Snapshot is the deterministic, golden-file form of a run. Cells are
// rendered with result.FormatValue.
type Snapshot struct {
	Scenario  string     `json:"scenario"`
	MDX       string     `json:"mdx,omitempty"`
	ErrorCode string     `json:"error_code,omitempty"`
	Columns   []string   `json:"columns,omitempty"`
	Rows      [][]string `json:"rows,omitempty"`
	Totals    []int      `json:"totals,omitempty"`
}

// Snapshot captures r under the given scenario name.
func (r *Result) Snapshot(name string) Snapshot {
	s := Snapshot{Scenario: name, MDX: r.MDX, ErrorCode: r.ErrorCode()}
	if r.Output == nil {
		return s
	}
	names := r.Output.Names()
	for _, c := range names.Columns() {
		s.Columns = append(s.Columns, c.Name)
	}
	for _, row := range names.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = result.FormatValue(v)
		}
		s.Rows = append(s.Rows, cells)
	}
	s.Totals = r.Output.TotalRows()
	return s
}
