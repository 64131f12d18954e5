package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"EUR", 3},
		{"Zürich", 6},
		{"東京", 4},
		{"ＡＢ", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, displayWidth(tt.in), tt.in)
	}
}

func TestTextTable_WriteText(t *testing.T) {
	table := &textTable{
		header: []string{"City", "Price.SUM"},
		rows: [][]string{
			{"東京", "12"},
			{"Paris", "3"},
			{"", "15"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, table.WriteText(&buf))
	assert.Equal(t, ""+
		"City   Price.SUM\n"+
		"-----  ---------\n"+
		"東京   12\n"+
		"Paris  3\n"+
		"       15\n", buf.String())
}
