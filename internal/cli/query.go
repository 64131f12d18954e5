package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pivotql/internal/result"
	"github.com/roach88/pivotql/internal/session"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Request   requestFlags
	Cube      cubeFlags
	View      string
	Scenarios []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute a request on the engine",
		Long: `Compile a request, execute it on the configured engine and print the
materialized table.

With --scenarios the request runs once per scenario, concurrently, and the
tables are printed in the order given. Executed queries are recorded in the
history database when history_path is configured.

Examples:
  pivotql query -m Price.SUM -r Currency
  pivotql query -m Price.SUM -r Month --totals --view captions
  pivotql query -m Price.SUM -r Currency --scenarios Base,stress
  pivotql query --request ./request.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	opts.Request.register(cmd)
	opts.Cube.register(cmd)
	cmd.Flags().StringVar(&opts.View, "view", viewNames, "text view to print (names|captions|styles)")
	cmd.Flags().StringSliceVar(&opts.Scenarios, "scenarios", nil, "run the request once per scenario")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := commandContext(cmd)

	if err := validateView(opts.View); err != nil {
		return err
	}
	req, err := opts.Request.request()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid request", err)
	}

	client, err := opts.engineClient()
	if err != nil {
		return err
	}
	history, closeHistory, err := opts.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	sopts := opts.sessionOptions()
	if history != nil {
		sopts.History = history
	}
	if opts.Cube.cube != "" {
		sopts.Cube = opts.Cube.cube
	}

	var sess *session.Session
	if opts.Cube.cubeDir != "" || opts.config().CubeDir != "" {
		c, err := opts.loadCube(ctx, opts.Cube)
		if err != nil {
			return err
		}
		sess = session.New(client, c, sopts)
	} else {
		sess, err = session.Open(ctx, client, sopts)
		if err != nil {
			return out.Fail("failed to open session", err)
		}
	}

	if len(opts.Scenarios) > 0 {
		results, err := sess.QueryScenarios(ctx, req, opts.Scenarios)
		if err != nil {
			return out.Fail("query failed", err)
		}
		return writeScenarioResults(out, results, opts.View)
	}

	res, err := sess.Query(ctx, req)
	if err != nil {
		return out.Fail("query failed", err)
	}
	return writeResult(out, res, opts.View)
}

type scenarioOutput struct {
	Scenario string                `json:"scenario"`
	Result   *result.TabularResult `json:"result"`

	table *result.Table
}

type scenariosOutput []scenarioOutput

func (s scenariosOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"results": []scenarioOutput(s)})
}

func (s scenariosOutput) WriteText(w io.Writer) error {
	for i, sc := range s {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Scenario %s\n", sc.Scenario)
		if err := tableFromResult(sc.table).WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

func writeScenarioResults(out *OutputFormatter, results []session.ScenarioResult, view string) error {
	output := make(scenariosOutput, 0, len(results))
	for _, sr := range results {
		t, err := selectView(sr.Result, view)
		if err != nil {
			return err
		}
		output = append(output, scenarioOutput{Scenario: sr.Scenario, Result: sr.Result, table: t})
	}
	return out.Success(output)
}
