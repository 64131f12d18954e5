package result

import "encoding/json"

type tableDoc struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (t *Table) doc() *tableDoc {
	rows := t.Rows()
	if rows == nil {
		rows = [][]any{}
	}
	return &tableDoc{Columns: t.Columns(), Rows: rows}
}

// MarshalJSON implements json.Marshaler for the table alone.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.doc())
}

type resultDoc struct {
	Names    *tableDoc `json:"names"`
	Captions *tableDoc `json:"captions,omitempty"`
	Styles   *tableDoc `json:"styles,omitempty"`
	Totals   []int     `json:"totals,omitempty"`
	Stale    bool      `json:"stale,omitempty"`
}

// MarshalJSON encodes every view that is currently available. Decimal
// values encode as JSON strings and times as RFC 3339.
func (r *TabularResult) MarshalJSON() ([]byte, error) {
	doc := resultDoc{Names: r.names.doc(), Stale: r.Stale()}
	if t, ok := r.Captions(); ok {
		doc.Captions = t.doc()
		doc.Totals = r.TotalRows()
	}
	if t, ok := r.Styles(); ok {
		doc.Styles = t.doc()
	}
	return json.Marshal(doc)
}
