package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", "hello", `"hello"`},
		{"null", nil, "null"},
		{"int", 42, "42"},
		{"trailing zeros", 1.50, "1.5"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"sorted keys", map[string]any{"zebra": 1, "alpha": 2, "beta": 3}, `{"alpha":2,"beta":3,"zebra":1}`},
		{"nested", map[string]any{"z": map[string]any{"b": 1, "a": 2}, "a": 3}, `{"a":3,"z":{"a":2,"b":1}}`},
		{"html unescaped", "<a&b>", `"<a&b>"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"control escaped", "a\x01\tb", `"a\u0001\tb"`},
		{"quote and backslash", `say "\"`, `"say \"\\\""`},
		{"struct tags", struct {
			B string `json:"b"`
			A int    `json:"a"`
		}{"x", 1}, `{"a":1,"b":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before
	// U+FF61 in UTF-16 but after it in UTF-8.
	obj := map[string]any{"｡": 1, "\U0001F600": 2}
	got, err := Canonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(got))
}

func TestCanonical_NFC(t *testing.T) {
	decomposed, err := Canonical("Cafe\u0301")
	require.NoError(t, err)
	composed, err := Canonical("Caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestCanonical_Unsupported(t *testing.T) {
	_, err := Canonical(make(chan int))
	assert.Error(t, err)
}
