package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pivotql/internal/session"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// CubeDir is the CUE package defining the cube. Relative paths are
	// resolved against the scenario file's directory.
	CubeDir string `yaml:"cube_dir"`

	// Cube selects a cube when the package defines several.
	Cube string `yaml:"cube,omitempty"`

	Capabilities session.Capabilities `yaml:"capabilities,omitempty"`

	Query session.Request `yaml:"query"`

	// Cellset is an optional recorded engine response (JSON). When absent
	// the query is compiled but not executed.
	Cellset string `yaml:"cellset,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is used by mdx_equals and mdx_contains.
	Text string `yaml:"text,omitempty"`

	// Code is used by error_code.
	Code string `yaml:"code,omitempty"`

	// Count is used by row_count.
	Count int `yaml:"count,omitempty"`

	// Columns is used by columns.
	Columns []string `yaml:"columns,omitempty"`

	// View, Row, Column and Value are used by cell. View defaults to names.
	View   string `yaml:"view,omitempty"`
	Row    int    `yaml:"row,omitempty"`
	Column string `yaml:"column,omitempty"`
	Value  string `yaml:"value,omitempty"`

	// Rows is used by totals.
	Rows []int `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertMDXEquals   = "mdx_equals"
	AssertMDXContains = "mdx_contains"
	AssertErrorCode   = "error_code"
	AssertRowCount    = "row_count"
	AssertColumns     = "columns"
	AssertCell        = "cell"
	AssertTotals      = "totals"
)

// Result views addressed by cell assertions.
const (
	ViewNames    = "names"
	ViewCaptions = "captions"
	ViewStyles   = "styles"
)

// LoadScenario reads a scenario file, resolving its paths against the
// file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes a scenario document, resolving relative paths
// against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s.CubeDir = resolve(basePath, s.CubeDir)
	s.Cellset = resolve(basePath, s.Cellset)

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.CubeDir == "" {
		return fmt.Errorf("cube_dir is required")
	}
	if _, err := os.Stat(s.CubeDir); err != nil {
		return fmt.Errorf("cube_dir not found: %s", s.CubeDir)
	}
	if s.Cellset != "" {
		if _, err := os.Stat(s.Cellset); err != nil {
			return fmt.Errorf("cellset file not found: %s", s.Cellset)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertMDXEquals, AssertMDXContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertColumns:
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns list is required for columns", index)
		}
	case AssertCell:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for cell", index)
		}
		if a.Row < 0 {
			return fmt.Errorf("assertions[%d]: row must be non-negative for cell", index)
		}
		switch a.View {
		case "":
			a.View = ViewNames
		case ViewNames, ViewCaptions, ViewStyles:
		default:
			return fmt.Errorf("assertions[%d]: unknown view %q", index, a.View)
		}
	case AssertTotals:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
