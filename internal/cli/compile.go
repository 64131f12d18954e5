package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pivotql/internal/session"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Request requestFlags
	Cube    cubeFlags
}

type compileOutput struct {
	MDX         string `json:"mdx"`
	Fingerprint string `json:"fingerprint"`
}

func (c compileOutput) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, c.MDX)
	return err
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a request into MDX",
		Long: `Compile a declarative request into MDX text without executing it.

The cube schema comes from CUE definitions (--cube-dir or cube_dir) when
set, otherwise from the engine's discovery.

Examples:
  pivotql compile --cube-dir ./cubes -m Price.SUM -r Currency
  pivotql compile --cube-dir ./cubes -m Price.SUM -r Month --totals
  pivotql compile --cube-dir ./cubes -r City -w Country=France
  pivotql compile --request ./request.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	opts.Request.register(cmd)
	opts.Cube.register(cmd)

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	req, err := opts.Request.request()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid request", err)
	}

	c, err := opts.loadCube(commandContext(cmd), opts.Cube)
	if err != nil {
		return err
	}

	sess := session.New(nil, c, opts.sessionOptions())
	q, err := sess.Compile(req)
	if err != nil {
		return out.Fail("compilation failed", err)
	}
	fp, err := sess.Fingerprint(req)
	if err != nil {
		return out.Fail("fingerprint failed", err)
	}
	out.VerboseLog("cube %s, fingerprint %s", c.Name, fp)

	return out.Success(compileOutput{MDX: q.String(), Fingerprint: fp})
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
