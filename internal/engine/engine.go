package engine

import (
	"context"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
)

// Engine executes query text and describes the cubes it serves.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	// ExecuteQuery runs compiled query text and returns the raw cellset.
	ExecuteQuery(ctx context.Context, text string) (*cellset.Cellset, error)

	// FetchSchema returns the discovery document.
	FetchSchema(ctx context.Context) (*cube.Discovery, error)
}
