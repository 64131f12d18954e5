package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pivotql/internal/fingerprint"
)

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not be run. A snapshot mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, res); err != nil {
		return nil, err
	}
	return res, nil
}

// AssertGolden compares a result already obtained against its golden file.
func AssertGolden(t *testing.T, name string, res *Result) error {
	t.Helper()

	data, err := fingerprint.Canonical(res.Snapshot(name))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
