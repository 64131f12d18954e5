package cellset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/roach88/pivotql/internal/qerr"
)

// Decode reads a cellset document and validates it. Any shape mismatch is
// a MalformedCellset error. Missing caption paths default to the name path.
func Decode(r io.Reader) (*Cellset, error) {
	var cs Cellset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cs); err != nil {
		return nil, &qerr.Error{
			Code:    qerr.CodeMalformedCellset,
			Message: "decode cellset",
			Err:     err,
		}
	}
	cs.normalize()
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return &cs, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(data []byte) (*Cellset, error) {
	return Decode(bytes.NewReader(data))
}

func (cs *Cellset) normalize() {
	for a := range cs.Axes {
		for p := range cs.Axes[a].Positions {
			for m := range cs.Axes[a].Positions[p] {
				member := &cs.Axes[a].Positions[p][m]
				if member.CaptionPath == nil {
					member.CaptionPath = append([]string(nil), member.NamePath...)
				}
			}
		}
	}
}

type cellDoc struct {
	Ordinal        int             `json:"ordinal"`
	Value          json.RawMessage `json:"value"`
	FormattedValue string          `json:"formattedValue"`
	Properties     *CellProperties `json:"properties,omitempty"`
}

// UnmarshalJSON decodes a cell, keeping numeric values exact.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var doc cellDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	value, err := decodeValue(doc.Value)
	if err != nil {
		return fmt.Errorf("cell %d: %w", doc.Ordinal, err)
	}
	c.Ordinal = doc.Ordinal
	c.Value = value
	c.FormattedValue = doc.FormattedValue
	c.Properties = doc.Properties
	return nil
}

// MarshalJSON encodes a cell in the engine's shape. Decimal values are
// written as JSON numbers.
func (c Cell) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	switch v := c.Value.(type) {
	case nil:
		raw = json.RawMessage("null")
	case decimal.Decimal:
		raw = json.RawMessage(v.String())
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(cellDoc{
		Ordinal:        c.Ordinal,
		Value:          raw,
		FormattedValue: c.FormattedValue,
		Properties:     c.Properties,
	})
}

// decodeValue maps a raw JSON cell value to nil, string, bool,
// decimal.Decimal, or the generic decoding of arrays and objects.
func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case 'n':
		return nil, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case '[', '{':
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid numeric value %s: %w", raw, err)
		}
		return d, nil
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
