package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand_Text(t *testing.T) {
	cmd := NewSchemaCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "--cube-dir", salesCubeDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Cube Sales\n")
	assert.Contains(t, out, "[Date].[Date]")
	assert.Contains(t, out, "Year (int) > Month (string)")
	assert.Contains(t, out, "[Currency].[Currency]")
	assert.Regexp(t, `\[Currency\]\.\[Currency\]\s+Currency\s+yes`, out)
	assert.Regexp(t, `Price\.SUM\s+Price\s+yes`, out)
}

func TestSchemaCommand_JSON(t *testing.T) {
	cmd := NewSchemaCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, "--cube-dir", salesCubeDir)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Name       string `json:"name"`
			Dimensions []struct {
				Name string `json:"name"`
			} `json:"dimensions"`
			Measures []struct {
				Name string `json:"name"`
			} `json:"measures"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Sales", resp.Data.Name)
	assert.Len(t, resp.Data.Dimensions, 3)
	assert.Len(t, resp.Data.Measures, 2)
}

func TestSchemaCommand_FromEngine(t *testing.T) {
	fe := newFakeEngine(t, "price_by_currency.json")

	cmd := NewSchemaCommand(&RootOptions{Format: "text", Config: engineConfig(fe.server.URL)})
	out, _, err := execute(t, cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Cube Sales\n")
	assert.Empty(t, fe.Queries(), "discovery only")
}
