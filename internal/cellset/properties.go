package cellset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Font flag bits carried by FONT_FLAGS.
const (
	FontBold      = 1
	FontItalic    = 2
	FontUnderline = 4
	FontStrikeout = 8
)

// CellProperties are the per-cell style properties an engine may report.
// Absent properties are nil.
type CellProperties struct {
	BackColor *Color  `json:"BACK_COLOR,omitempty"`
	ForeColor *Color  `json:"FORE_COLOR,omitempty"`
	FontFlags *int    `json:"FONT_FLAGS,omitempty"`
	FontName  *string `json:"FONT_NAME,omitempty"`
	FontSize  *int    `json:"FONT_SIZE,omitempty"`
}

// IsZero reports whether no style property is set.
func (p *CellProperties) IsZero() bool {
	return p.BackColor == nil && p.ForeColor == nil && p.FontFlags == nil &&
		p.FontName == nil && p.FontSize == nil
}

// Color is either a packed integer, red in the low byte (0xBBGGRR), or a
// colour string passed through unchanged ("red", "transparent").
type Color struct {
	Packed int64
	Token  string
	packed bool
}

// PackedColor returns a packed integer colour.
func PackedColor(v int64) *Color {
	return &Color{Packed: v, packed: true}
}

// TokenColor returns a colour given as text.
func TokenColor(s string) *Color {
	return &Color{Token: s}
}

// IsPacked reports whether the colour is a packed integer.
func (c Color) IsPacked() bool {
	return c.packed
}

// RGB splits a packed colour into its channels. Negative values are read
// as their low 24 bits in two's complement.
func (c Color) RGB() (r, g, b int64) {
	return channel(c.Packed), channel(c.Packed >> 8), channel(c.Packed >> 16)
}

func channel(v int64) int64 {
	return ((v % 256) + 256) % 256
}

// UnmarshalJSON accepts a JSON number or string.
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Color{Token: s}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			return fmt.Errorf("invalid colour %s", data)
		}
		n = int64(f)
	}
	*c = Color{Packed: n, packed: true}
	return nil
}

// MarshalJSON writes the colour back in the form it was read.
func (c Color) MarshalJSON() ([]byte, error) {
	if c.packed {
		return []byte(strconv.FormatInt(c.Packed, 10)), nil
	}
	return json.Marshal(c.Token)
}
