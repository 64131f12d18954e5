package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/session"
	"github.com/roach88/pivotql/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the cube from the scenario's CUE package
//  2. Compile the query
//  3. If a cellset is given, execute against it and materialize
//  4. Evaluate assertions
//
// Compile and execution failures are part of the result, so scenarios can
// assert on them. The returned error reports a scenario that could not be
// run at all, such as an invalid cube definition.
func Run(scenario *Scenario) (*Result, error) {
	disc, err := cube.LoadCUE(scenario.CubeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load cube: %w", err)
	}
	c, err := disc.Cube(scenario.Cube)
	if err != nil {
		return nil, fmt.Errorf("failed to select cube: %w", err)
	}

	opts := session.Options{
		Capabilities: scenario.Capabilities,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		IDs:          testutil.NewSequentialIDs("scenario"),
		Now:          testutil.NewStepClock(time.Millisecond).Now,
		Parallelism:  1,
	}

	// Without a cellset the session has no engine and only compiles.
	sess := session.New(nil, c, opts)
	if scenario.Cellset != "" {
		eng := &testutil.FakeEngine{
			Discovery: disc,
			Respond: func(string) (*cellset.Cellset, error) {
				return loadCellset(scenario.Cellset)
			},
		}
		sess = session.New(eng, c, opts)
	}

	res := NewResult()
	q, err := sess.Compile(scenario.Query)
	if err != nil {
		res.Err = err
	} else {
		res.MDX = q.String()
		if scenario.Cellset != "" {
			res.Output, res.Err = sess.Query(context.Background(), scenario.Query)
		}
	}

	for _, msg := range EvaluateAssertions(res, scenario.Assertions) {
		res.AddError(msg)
	}
	return res, nil
}

func loadCellset(path string) (*cellset.Cellset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cellset: %w", err)
	}
	defer f.Close()
	return cellset.Decode(f)
}
