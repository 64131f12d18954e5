package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// To regenerate after an intended change in compiled queries or results:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			res, err := RunWithGolden(t, s)
			require.NoError(t, err)
			require.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}
