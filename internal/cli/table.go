package cli

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"github.com/roach88/pivotql/internal/result"
)

// textTable is a plain column-aligned table for text output.
type textTable struct {
	header []string
	rows   [][]string
}

func tableFromResult(t *result.Table) *textTable {
	tt := &textTable{}
	for _, c := range t.Columns() {
		tt.header = append(tt.header, c.Name)
	}
	for _, row := range t.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = result.FormatValue(v)
		}
		tt.rows = append(tt.rows, cells)
	}
	return tt
}

// WriteText pads every column to its widest cell. East Asian wide and
// fullwidth runes count as two columns so captions line up in a terminal.
func (t *textTable) WriteText(w io.Writer) error {
	widths := make([]int, len(t.header))
	measure := func(cells []string) {
		for i, c := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], displayWidth(c))
			}
		}
	}
	measure(t.header)
	for _, r := range t.rows {
		measure(r)
	}

	writeRow := func(cells []string) error {
		var b strings.Builder
		for i, c := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(c)
			if i < len(cells)-1 && i < len(widths) {
				b.WriteString(strings.Repeat(" ", widths[i]-displayWidth(c)))
			}
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
		return err
	}

	if err := writeRow(t.header); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	if err := writeRow(rule); err != nil {
		return err
	}
	for _, r := range t.rows {
		if err := writeRow(r); err != nil {
			return err
		}
	}
	return nil
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
