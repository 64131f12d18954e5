// Package api serves compile and query over HTTP.
//
//	GET  /v1/cube           schema snapshot and capabilities
//	POST /v1/compile        request -> MDX text and fingerprint
//	POST /v1/query          request -> tabular result (or one per scenario)
//	GET  /v1/history        recent queries (when history is enabled)
//	GET  /v1/history/{id}   one recorded query
//	GET  /healthz
//
// Domain errors map to status codes: construction errors 400, unknown names
// 404, engine and cellset failures 502.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
	"github.com/roach88/pivotql/internal/result"
	"github.com/roach88/pivotql/internal/session"
	"github.com/roach88/pivotql/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// History is the read side of the query history.
type History interface {
	List(ctx context.Context, f store.Filter) ([]store.Entry, error)
	Get(ctx context.Context, id string) (store.Entry, error)
}

// HandlerConfig holds what the handler serves.
type HandlerConfig struct {
	Session *session.Session

	// History is optional; without it the history routes answer 404.
	History History
	Logger  *slog.Logger
}

type handler struct {
	session *session.Session
	history History
	logger  *slog.Logger
}

// NewHandler builds the API router.
func NewHandler(cfg HandlerConfig) http.Handler {
	h := &handler{session: cfg.Session, history: cfg.History, logger: cfg.Logger}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/cube", h.getCube)
		r.Post("/compile", h.compile)
		r.Post("/query", h.query)
		r.Get("/history", h.listHistory)
		r.Get("/history/{id}", h.getHistory)
	})
	return r
}

type cubeResponse struct {
	Cube         *cube.Cube           `json:"cube"`
	Capabilities session.Capabilities `json:"capabilities"`
}

func (h *handler) getCube(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cubeResponse{
		Cube:         h.session.Cube(),
		Capabilities: h.session.Capabilities(),
	})
}

type compileResponse struct {
	MDX         string `json:"mdx"`
	Fingerprint string `json:"fingerprint"`
}

func (h *handler) compile(w http.ResponseWriter, r *http.Request) {
	var req session.Request
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.session.Compile(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	fp, err := h.session.Fingerprint(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{MDX: q.String(), Fingerprint: fp})
}

type queryRequest struct {
	session.Request

	// Scenarios, when set, runs the request once per scenario and
	// overrides Request.Scenario.
	Scenarios []string `json:"scenarios,omitempty"`
}

type scenarioResponse struct {
	Scenario string                `json:"scenario"`
	Result   *result.TabularResult `json:"result"`
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !h.decode(w, r, &req) {
		return
	}

	if len(req.Scenarios) > 0 {
		results, err := h.session.QueryScenarios(r.Context(), req.Request, req.Scenarios)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		out := make([]scenarioResponse, len(results))
		for i, sr := range results {
			out[i] = scenarioResponse{Scenario: sr.Scenario, Result: sr.Result}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": out})
		return
	}

	res, err := h.session.Query(r.Context(), req.Request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "query history is not enabled", Code: "NOT_FOUND"})
		return
	}
	q := r.URL.Query()
	f := store.Filter{
		Cube:        q.Get("cube"),
		Fingerprint: q.Get("fingerprint"),
		Status:      store.Status(q.Get("status")),
		Limit:       50,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, r, qerr.InvalidArgument("limit %q must be a non-negative integer", v))
			return
		}
		f.Limit = n
	}
	entries, err := h.history.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "query history is not enabled", Code: "NOT_FOUND"})
		return
	}
	e, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// decode reads a JSON body into v, rejecting unknown fields. It writes the
// error response itself and reports whether decoding succeeded.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:     "invalid request body: " + err.Error(),
			Code:      "PARSE_ERROR",
			RequestID: middleware.GetReqID(r.Context()),
		})
		return false
	}
	return true
}

type errorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	body := errorBody{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())}

	var qe *qerr.Error
	switch {
	case errors.As(err, &qe):
		body.Code = string(qe.Code)
		body.Details = qe.Details
	case errors.Is(err, store.ErrNotFound):
		body.Code = "NOT_FOUND"
	default:
		body.Code = "INTERNAL"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err,
			"request_id", body.RequestID)
	}
	writeJSON(w, status, body)
}

// httpStatus maps domain errors to HTTP status codes.
func httpStatus(err error) int {
	switch qerr.CodeOf(err) {
	case qerr.CodeInvalidArgument, qerr.CodeUnsupportedCondition:
		return http.StatusBadRequest
	case qerr.CodeSchemaLookupFailure:
		return http.StatusNotFound
	case qerr.CodeMalformedCellset, qerr.CodeEngineUnavailable:
		return http.StatusBadGateway
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
