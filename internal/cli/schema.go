package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pivotql/internal/cube"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Cube cubeFlags
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the cube's hierarchies and measures",
		Long: `Print the hierarchies, levels and measures of a cube.

Examples:
  pivotql schema --cube-dir ./cubes
  pivotql schema --cube Sales --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	opts.Cube.register(cmd)

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	c, err := opts.loadCube(commandContext(cmd), opts.Cube)
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(schemaOutput{c})
}

type schemaOutput struct {
	cube *cube.Cube
}

func (s schemaOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.cube)
}

func (s schemaOutput) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Cube %s\n\n", s.cube.Name)

	hiers := &textTable{header: []string{"Hierarchy", "Levels", "Slicing"}}
	for _, h := range s.cube.Hierarchies() {
		levels := make([]string, len(h.Levels))
		for i, l := range h.Levels {
			levels[i] = l.Name
			if l.Type.Kind != cube.KindObject {
				levels[i] += " (" + l.Type.Kind.String() + ")"
			}
		}
		slicing := ""
		if h.Slicing {
			slicing = "yes"
		}
		hiers.rows = append(hiers.rows, []string{h.Key().String(), strings.Join(levels, " > "), slicing})
	}
	if err := hiers.WriteText(w); err != nil {
		return err
	}
	fmt.Fprintln(w)

	measures := &textTable{header: []string{"Measure", "Caption", "Folder", "Visible"}}
	for _, m := range s.cube.Measures {
		visible := "yes"
		if !m.Visible {
			visible = "no"
		}
		measures.rows = append(measures.rows, []string{m.Name, m.Caption, m.Folder, visible})
	}
	return measures.WriteText(w)
}
