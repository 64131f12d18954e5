package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pivotql/internal/condition"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/engine"
	"github.com/roach88/pivotql/internal/session"
	"github.com/roach88/pivotql/internal/store"
)

// requestFlags binds the flags describing a session.Request. Flags add to
// whatever the --request file holds.
type requestFlags struct {
	file     string
	measures []string
	rows     []string
	where    []string
	totals   bool
	scenario string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "request", "", "YAML or JSON file holding the request")
	cmd.Flags().StringSliceVarP(&f.measures, "measure", "m", nil, "measure to select (repeatable)")
	cmd.Flags().StringSliceVarP(&f.rows, "row", "r", nil, "level to put on rows (repeatable)")
	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, `condition as JSON, or "Level=value" (repeatable)`)
	cmd.Flags().BoolVar(&f.totals, "totals", false, "include subtotal and grand-total rows")
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "scenario to query (requires branching)")
}

func (f *requestFlags) request() (session.Request, error) {
	var req session.Request
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return req, fmt.Errorf("failed to read request file: %w", err)
		}
		// JSON is a subset of YAML, so one strict decoder reads both.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, fmt.Errorf("failed to parse request file %s: %w", f.file, err)
		}
	}

	req.Measures = append(req.Measures, f.measures...)
	req.Rows = append(req.Rows, f.rows...)
	for i, w := range f.where {
		spec, err := parseWhere(w)
		if err != nil {
			return req, fmt.Errorf("--where[%d]: %w", i, err)
		}
		req.Where = append(req.Where, spec)
	}
	if f.totals {
		req.IncludeTotals = true
	}
	if f.scenario != "" {
		req.Scenario = f.scenario
	}
	return req, nil
}

// parseWhere reads a condition flag: a JSON condition.Spec, or the
// shorthand "Level=value" for a level equality.
func parseWhere(s string) (condition.Spec, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var spec condition.Spec
		dec := json.NewDecoder(strings.NewReader(s))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return spec, fmt.Errorf("invalid condition JSON: %w", err)
		}
		return spec, nil
	}

	level, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(level) == "" {
		return condition.Spec{}, fmt.Errorf("expected JSON or Level=value, got %q", s)
	}
	return condition.Spec{
		Kind:  condition.KindLevel,
		Level: strings.TrimSpace(level),
		Value: strings.TrimSpace(value),
	}, nil
}

// cubeFlags selects where the cube schema comes from.
type cubeFlags struct {
	cubeDir string
	cube    string
}

func (f *cubeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cubeDir, "cube-dir", "", "directory of CUE cube definitions (default: config cube_dir)")
	cmd.Flags().StringVar(&f.cube, "cube", "", "cube name (default: config cube, or the only cube)")
}

// loadCube resolves the cube from a CUE directory when one is configured,
// otherwise from the engine's discovery.
func (o *RootOptions) loadCube(ctx context.Context, f cubeFlags) (*cube.Cube, error) {
	cfg := o.config()
	name := f.cube
	if name == "" {
		name = cfg.Cube
	}

	dir := f.cubeDir
	if dir == "" {
		dir = cfg.CubeDir
	}
	var (
		disc *cube.Discovery
		err  error
	)
	switch {
	case dir != "":
		o.logger().Debug("loading cube definitions", "dir", dir)
		disc, err = cube.LoadCUE(dir)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load cube definitions", err)
		}
	case cfg.Engine.URL != "":
		client, err := o.engineClient()
		if err != nil {
			return nil, err
		}
		disc, err = client.FetchSchema(ctx)
		if err != nil {
			return nil, WrapExitError(exitCodeFor(err), "failed to fetch schema", err)
		}
	default:
		return nil, NewExitError(ExitCommandError, "no cube source: set --cube-dir, cube_dir or engine.url")
	}

	c, err := disc.Cube(name)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to select cube", err)
	}
	return c, nil
}

// engineClient builds a client from the engine section of the config.
func (o *RootOptions) engineClient() (*engine.Client, error) {
	cfg := o.config()
	if cfg.Engine.URL == "" {
		return nil, NewExitError(ExitCommandError, "engine.url is not configured (config file or PIVOTQL_ENGINE_URL)")
	}

	opts := []engine.ClientOption{
		engine.WithTimeout(cfg.Engine.Timeout),
		engine.WithLogger(o.logger()),
	}
	if cfg.Engine.Token != "" {
		opts = append(opts, engine.WithToken(cfg.Engine.Token))
	}
	if cfg.Engine.RateLimitRPS > 0 {
		opts = append(opts, engine.WithRateLimit(cfg.Engine.RateLimitRPS, cfg.Engine.RateLimitBurst))
	}
	return engine.NewClient(cfg.Engine.URL, opts...), nil
}

// sessionOptions maps the configuration onto session options. History is
// left to the caller.
func (o *RootOptions) sessionOptions() session.Options {
	cfg := o.config()
	return session.Options{
		Cube: cfg.Cube,
		Capabilities: session.Capabilities{
			Branching: cfg.Capabilities.Branching,
			Styling:   cfg.Capabilities.Styling,
		},
		Logger: o.logger(),
	}
}

// openHistory opens the history store when history_path is configured.
// The returned close function is never nil.
func (o *RootOptions) openHistory() (*store.Store, func(), error) {
	path := o.config().HistoryPath
	if path == "" {
		return nil, func() {}, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open history", err)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			o.logger().Error("error closing history", "error", err)
		}
	}
	return st, closeFn, nil
}
