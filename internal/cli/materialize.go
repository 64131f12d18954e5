package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/result"
)

// Result views selectable with --view.
const (
	viewNames    = "names"
	viewCaptions = "captions"
	viewStyles   = "styles"
)

// MaterializeOptions holds flags for the materialize command.
type MaterializeOptions struct {
	*RootOptions
	Cube     cubeFlags
	Totals   bool
	View     string
	NoStyles bool
}

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MaterializeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "materialize <cellset.json>",
		Short: "Turn a saved cellset into a table",
		Long: `Materialize a cellset document, as returned by the engine, into a table.

Useful to inspect captured engine responses offline. The cube schema is
resolved the same way as for compile.

Examples:
  pivotql materialize --cube-dir ./cubes response.json
  pivotql materialize --cube-dir ./cubes --totals --view captions response.json
  pivotql materialize --cube-dir ./cubes response.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialize(opts, args[0], cmd)
		},
	}

	opts.Cube.register(cmd)
	cmd.Flags().BoolVar(&opts.Totals, "totals", false, "keep subtotal and grand-total rows")
	cmd.Flags().StringVar(&opts.View, "view", viewNames, "text view to print (names|captions|styles)")
	cmd.Flags().BoolVar(&opts.NoStyles, "no-styles", false, "skip cell style properties")

	return cmd
}

func runMaterialize(opts *MaterializeOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if err := validateView(opts.View); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open cellset", err)
	}
	defer f.Close()

	cs, err := cellset.Decode(f)
	if err != nil {
		return out.Fail("failed to decode cellset", err)
	}

	c, err := opts.loadCube(commandContext(cmd), opts.Cube)
	if err != nil {
		return err
	}

	var mopts []result.Option
	if opts.NoStyles {
		mopts = append(mopts, result.WithoutStyles())
	}
	res, err := result.Materialize(cs, c, opts.Totals, mopts...)
	if err != nil {
		return out.Fail("materialization failed", err)
	}
	out.VerboseLog("%d rows, totals at %v", res.Len(), res.TotalRows())

	return writeResult(out, res, opts.View)
}

func validateView(view string) error {
	switch view {
	case viewNames, viewCaptions, viewStyles:
		return nil
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("invalid view %q: must be one of names, captions, styles", view))
}

// resultOutput encodes the full result as JSON and one view as text.
type resultOutput struct {
	res   *result.TabularResult
	table *result.Table
}

func (r resultOutput) MarshalJSON() ([]byte, error) {
	return r.res.MarshalJSON()
}

func (r resultOutput) WriteText(w io.Writer) error {
	return tableFromResult(r.table).WriteText(w)
}

func selectView(res *result.TabularResult, view string) (*result.Table, error) {
	switch view {
	case viewCaptions:
		if t, ok := res.Captions(); ok {
			return t, nil
		}
	case viewStyles:
		if t, ok := res.Styles(); ok {
			return t, nil
		}
	default:
		return res.Names(), nil
	}
	return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s view unavailable for this result", view))
}

func writeResult(out *OutputFormatter, res *result.TabularResult, view string) error {
	t, err := selectView(res, view)
	if err != nil {
		return err
	}
	return out.Success(resultOutput{res: res, table: t})
}
