package testutil

import (
	"context"
	"sync"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// FakeEngine is an in-memory engine. It answers FetchSchema with Discovery
// and ExecuteQuery with Respond, recording every query text it receives.
// Safe for concurrent use.
type FakeEngine struct {
	Discovery *cube.Discovery
	Respond   func(text string) (*cellset.Cellset, error)

	mu      sync.Mutex
	queries []string
}

// NewFakeEngine returns an engine serving SalesDiscovery and answering
// every query with cs.
func NewFakeEngine(cs *cellset.Cellset) *FakeEngine {
	return &FakeEngine{
		Discovery: SalesDiscovery(),
		Respond: func(string) (*cellset.Cellset, error) {
			return cs, nil
		},
	}
}

// ExecuteQuery records text and returns Respond's answer.
func (f *FakeEngine) ExecuteQuery(ctx context.Context, text string) (*cellset.Cellset, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, qerr.EngineUnavailable(err, "query cancelled")
	}
	if f.Respond == nil {
		return nil, qerr.EngineUnavailable(nil, "fake engine has no response")
	}
	return f.Respond(text)
}

// FetchSchema returns Discovery.
func (f *FakeEngine) FetchSchema(ctx context.Context) (*cube.Discovery, error) {
	if f.Discovery == nil {
		return nil, qerr.EngineUnavailable(nil, "fake engine has no discovery")
	}
	return f.Discovery, nil
}

// Queries returns the query texts received so far.
func (f *FakeEngine) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
