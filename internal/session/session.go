// Package session ties the compiler, the engine and the materializer
// together for one cube.
//
// A Session holds a read-only snapshot of the cube schema, fetched once,
// and the capabilities the caller enabled. Compile is pure; Query compiles,
// executes on the engine and materializes. QueryScenarios fans one request
// out over several scenarios concurrently, which is safe because
// compilation and materialization share nothing but the immutable cube.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/pivotql/internal/condition"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/engine"
	"github.com/roach88/pivotql/internal/fingerprint"
	"github.com/roach88/pivotql/internal/mdx"
	"github.com/roach88/pivotql/internal/qerr"
	"github.com/roach88/pivotql/internal/result"
	"github.com/roach88/pivotql/internal/store"
)

// DefaultParallelism bounds QueryScenarios when Options.Parallelism is 0.
const DefaultParallelism = 4

// Capabilities are the optional engine features a session may use.
type Capabilities struct {
	// Branching allows requests to name a scenario other than the base one.
	Branching bool `json:"branching" yaml:"branching"`

	// Styling captures per-cell style properties into the style view.
	Styling bool `json:"styling" yaml:"styling"`
}

// Recorder stores query history. *store.Store implements it.
type Recorder interface {
	Record(ctx context.Context, e store.Entry) error
}

// Options configures a session.
type Options struct {
	// Cube names the cube to use; empty selects the only cube of a
	// single-cube discovery.
	Cube         string
	Capabilities Capabilities

	// History, when set, receives one entry per executed query.
	History Recorder

	Logger      *slog.Logger
	IDs         engine.IDGenerator
	Now         func() time.Time
	Parallelism int
}

// Request is a declarative selection. Level references use the forms
// cube.Cube.ResolveLevel accepts.
type Request struct {
	Measures      []string         `json:"measures,omitempty" yaml:"measures"`
	Rows          []string         `json:"rows,omitempty" yaml:"rows"`
	Where         []condition.Spec `json:"where,omitempty" yaml:"where"`
	IncludeTotals bool             `json:"include_totals,omitempty" yaml:"include_totals"`
	Scenario      string           `json:"scenario,omitempty" yaml:"scenario"`
}

// Session runs requests against one cube.
type Session struct {
	engine engine.Engine
	cube   *cube.Cube
	caps   Capabilities

	history     Recorder
	logger      *slog.Logger
	ids         engine.IDGenerator
	now         func() time.Time
	parallelism int
}

// Open fetches the discovery from eng and opens a session on the selected
// cube.
func Open(ctx context.Context, eng engine.Engine, opts Options) (*Session, error) {
	disc, err := eng.FetchSchema(ctx)
	if err != nil {
		return nil, err
	}
	c, err := disc.Cube(opts.Cube)
	if err != nil {
		return nil, err
	}
	return New(eng, c, opts), nil
}

// New opens a session on a cube obtained elsewhere, such as a CUE
// definition. eng may be nil for a compile-only session.
func New(eng engine.Engine, c *cube.Cube, opts Options) *Session {
	s := &Session{
		engine:      eng,
		cube:        c,
		caps:        opts.Capabilities,
		history:     opts.History,
		logger:      opts.Logger,
		ids:         opts.IDs,
		now:         opts.Now,
		parallelism: opts.Parallelism,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.ids == nil {
		s.ids = engine.UUIDv7Generator{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.parallelism <= 0 {
		s.parallelism = DefaultParallelism
	}
	return s
}

// Cube returns the session's schema snapshot.
func (s *Session) Cube() *cube.Cube {
	return s.cube
}

// Capabilities returns the enabled capabilities.
func (s *Session) Capabilities() Capabilities {
	return s.caps
}

// Compile resolves req against the cube and compiles it.
func (s *Session) Compile(req Request) (*mdx.Query, error) {
	if req.Scenario != "" && req.Scenario != cube.BaseScenario && !s.caps.Branching {
		return nil, qerr.InvalidArgument("scenario %q requested but branching is not enabled", req.Scenario)
	}

	rows := make([]cube.LevelKey, 0, len(req.Rows))
	for _, ref := range req.Rows {
		l, err := s.cube.ResolveLevel(ref)
		if err != nil {
			return nil, err
		}
		rows = append(rows, l.Key())
	}

	where, err := condition.BuildAll(s.cube, req.Where)
	if err != nil {
		return nil, err
	}

	return mdx.Compile(s.cube, req.Measures, rows, condition.Decombine(where), req.IncludeTotals, req.Scenario)
}

// Fingerprint identifies req on this session's cube. Requests that differ
// only in spelling share a fingerprint.
func (s *Session) Fingerprint(req Request) (string, error) {
	return fingerprint.Of(fingerprint.DomainQuery, struct {
		Cube    string  `json:"cube"`
		Request Request `json:"request"`
	}{s.cube.Name, req})
}

// Query compiles req, executes it and materializes the result. Subtotal and
// grand-total rows are kept exactly when req.IncludeTotals is set.
func (s *Session) Query(ctx context.Context, req Request) (*result.TabularResult, error) {
	id := s.ids.Generate()
	log := s.logger.With("query_id", id, "cube", s.cube.Name)
	if req.Scenario != "" {
		log = log.With("scenario", req.Scenario)
	}

	start := s.now()
	q, err := s.Compile(req)
	if err != nil {
		log.Debug("compile failed", "error", err)
		return nil, err
	}
	text := q.String()

	res, err := s.execute(ctx, text, req.IncludeTotals)
	elapsed := s.now().Sub(start)
	if err != nil {
		log.Warn("query failed", "error", err, "duration", elapsed)
	} else {
		log.Info("query executed", "rows", res.Len(), "duration", elapsed)
	}
	s.record(ctx, log, id, req, text, res, err, start, elapsed)
	return res, err
}

func (s *Session) execute(ctx context.Context, text string, keepTotals bool) (*result.TabularResult, error) {
	if s.engine == nil {
		return nil, qerr.EngineUnavailable(nil, "session has no engine")
	}
	cs, err := s.engine.ExecuteQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	var opts []result.Option
	if !s.caps.Styling {
		opts = append(opts, result.WithoutStyles())
	}
	return result.Materialize(cs, s.cube, keepTotals, opts...)
}

func (s *Session) record(ctx context.Context, log *slog.Logger, id string, req Request, text string,
	res *result.TabularResult, queryErr error, start time.Time, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	fp, err := s.Fingerprint(req)
	if err != nil {
		log.Error("fingerprint request", "error", err)
		return
	}
	e := store.Entry{
		ID:          id,
		Cube:        s.cube.Name,
		Fingerprint: fp,
		Scenario:    req.Scenario,
		MDX:         text,
		Status:      store.StatusOK,
		Duration:    elapsed,
		CreatedAt:   start,
	}
	if queryErr != nil {
		e.Status = store.StatusFailed
		e.ErrorCode = string(qerr.CodeOf(queryErr))
		e.Error = queryErr.Error()
	} else {
		e.Rows = res.Len()
	}
	// History is best effort; a failed write never fails the query.
	if err := s.history.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Error("record history", "error", err)
	}
}

// ScenarioResult is one scenario's outcome in QueryScenarios.
type ScenarioResult struct {
	Scenario string
	Result   *result.TabularResult
}

// QueryScenarios runs req once per scenario, concurrently, and returns the
// results in the order of scenarios. The first failure cancels the
// remaining queries and is returned.
func (s *Session) QueryScenarios(ctx context.Context, req Request, scenarios []string) ([]ScenarioResult, error) {
	if len(scenarios) == 0 {
		return nil, qerr.InvalidArgument("no scenarios given")
	}
	out := make([]ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, sc := range scenarios {
		i, sc := i, sc
		r := req
		r.Scenario = sc
		g.Go(func() error {
			res, err := s.Query(gctx, r)
			if err != nil {
				return scenarioError(sc, err)
			}
			out[i] = ScenarioResult{Scenario: sc, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func scenarioError(scenario string, err error) error {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		return qe.With("scenario", scenario)
	}
	return err
}
