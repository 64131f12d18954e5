package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pivotql/internal/condition"
)

// writeScenario writes content next to an empty cube directory and returns
// the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cube"), 0o755))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: by_city
description: "Cities in France"
cube_dir: cube
capabilities: {branching: true}
query:
  measures: ["Price.SUM"]
  rows: ["City"]
  where:
    - {level: Country, value: France}
    - {kind: hierarchy_isin, hierarchy: Date, paths: [[2020, Jan]]}
  include_totals: true
  scenario: stress
assertions:
  - type: mdx_contains
    text: "[France]"
  - type: cell
    row: 1
    column: City
    value: Paris
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "by_city", s.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "cube"), s.CubeDir, "paths resolve against the scenario file")
	assert.True(t, s.Capabilities.Branching)
	assert.Equal(t, []string{"Price.SUM"}, s.Query.Measures)
	assert.True(t, s.Query.IncludeTotals)
	assert.Equal(t, "stress", s.Query.Scenario)

	require.Len(t, s.Query.Where, 2)
	assert.Equal(t, "France", s.Query.Where[0].Value)
	assert.Equal(t, condition.KindHierarchyIsIn, s.Query.Where[1].Kind)
	assert.Equal(t, [][]any{{2020, "Jan"}}, s.Query.Where[1].Paths)

	require.Len(t, s.Assertions, 2)
	assert.Equal(t, ViewNames, s.Assertions[1].View, "cell view defaults to names")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
cube_dir: cube
assertion:
  - type: row_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty document",
			content: "",
			wantErr: "empty document",
		},
		{
			name:    "missing name",
			content: "description: d\ncube_dir: cube\nassertions: [{type: row_count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ncube_dir: cube\nassertions: [{type: row_count}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing cube dir",
			content: "name: n\ndescription: d\nassertions: [{type: row_count}]\n",
			wantErr: "cube_dir is required",
		},
		{
			name:    "cube dir not found",
			content: "name: n\ndescription: d\ncube_dir: nowhere\nassertions: [{type: row_count}]\n",
			wantErr: "cube_dir not found",
		},
		{
			name:    "cellset not found",
			content: "name: n\ndescription: d\ncube_dir: cube\ncellset: none.json\nassertions: [{type: row_count}]\n",
			wantErr: "cellset file not found",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\ncube_dir: cube\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{count: 1}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "mdx without text",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: mdx_contains}]\n",
			wantErr: "text is required for mdx_contains",
		},
		{
			name:    "error code without code",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: error_code}]\n",
			wantErr: "code is required for error_code",
		},
		{
			name:    "negative row count",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: row_count, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "empty columns",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: columns}]\n",
			wantErr: "columns list is required",
		},
		{
			name:    "cell without column",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: cell, row: 0}]\n",
			wantErr: "column is required for cell",
		},
		{
			name:    "cell with unknown view",
			content: "name: n\ndescription: d\ncube_dir: cube\nassertions: [{type: cell, column: Year, view: html}]\n",
			wantErr: `unknown view "html"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
