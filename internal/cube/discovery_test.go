package cube

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discoveryJSON = `{
  "cubes": [{
    "name": "Sales",
    "dimensions": [
      {"name": "Measures", "hierarchies": [{"name": "Measures", "slicing": true, "levels": [{"name": "MeasuresLevel"}]}]},
      {"name": "Date", "hierarchies": [{
        "name": "Date", "slicing": false,
        "levels": [
          {"name": "ALL", "type": "Object"},
          {"name": "Year", "caption": "Year", "type": "int"},
          {"name": "Day", "caption": "Day", "type": "LocalDate[yyyy-MM-dd]"}
        ]}]},
      {"name": "Currency", "hierarchies": [{
        "name": "Currency", "slicing": true,
        "levels": [{"name": "ALL"}]}]}
    ],
    "measures": [
      {"name": "Price.SUM", "caption": "Price", "visible": true, "formatString": "#,###.00"},
      {"name": "hidden.SUM", "visible": false, "folder": "Internal", "description": "not shown"},
      {"name": "contributors.COUNT"}
    ]
  }]
}`

func TestDecodeDiscovery(t *testing.T) {
	disc, err := DecodeDiscovery(strings.NewReader(discoveryJSON))
	require.NoError(t, err)

	c, err := disc.Cube("")
	require.NoError(t, err)
	assert.Equal(t, "Sales", c.Name)
	require.Len(t, c.Dimensions, 2, "the Measures dimension is skipped")

	date, err := c.Hierarchy(HierarchyKey{Dimension: "Date", Hierarchy: "Date"})
	require.NoError(t, err)
	require.Len(t, date.Levels, 2, "implicit root dropped on non-slicing hierarchies")
	assert.Equal(t, "Year", date.Levels[0].Name)
	assert.Equal(t, 0, date.Levels[0].Depth())
	assert.Equal(t, KindLocalDate, date.Levels[1].Type.Kind)

	currency, err := c.Hierarchy(HierarchyKey{Dimension: "Currency", Hierarchy: "Currency"})
	require.NoError(t, err)
	require.Len(t, currency.Levels, 1, "slicing hierarchies keep a level named ALL")

	price, err := c.Measure("Price.SUM")
	require.NoError(t, err)
	assert.Equal(t, "#,###.00", price.FormatString)
	assert.True(t, price.Visible)

	hidden, err := c.Measure("hidden.SUM")
	require.NoError(t, err)
	assert.False(t, hidden.Visible)
	assert.Equal(t, "Internal", hidden.Folder)

	count, err := c.Measure("contributors.COUNT")
	require.NoError(t, err)
	assert.True(t, count.Visible, "visibility defaults to true")
}

func TestDecodeDiscoveryErrors(t *testing.T) {
	_, err := DecodeDiscovery(strings.NewReader(`{"cubes": [`))
	assert.Error(t, err)

	_, err = DecodeDiscovery(strings.NewReader(`{"cubes": [{"name": ""}]}`))
	assert.Error(t, err)
}

func TestDiscoveryMarshalRoundTrip(t *testing.T) {
	disc, err := DecodeDiscovery(strings.NewReader(discoveryJSON))
	require.NoError(t, err)

	data, err := json.Marshal(disc)
	require.NoError(t, err)

	again, err := DecodeDiscovery(strings.NewReader(string(data)))
	require.NoError(t, err)

	c, _ := disc.Cube("Sales")
	c2, _ := again.Cube("Sales")
	assert.Equal(t, c.Measures, c2.Measures)
	assert.Equal(t, len(c.Hierarchies()), len(c2.Hierarchies()))
	assert.Equal(t, c.Hierarchies()[0].Levels[1].Type, c2.Hierarchies()[0].Levels[1].Type)
}
