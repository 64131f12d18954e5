package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/pivotql/internal/cellset"
	"github.com/roach88/pivotql/internal/cube"
	"github.com/roach88/pivotql/internal/qerr"
)

// Paths of the engine API, relative to the client's base URL.
const (
	QueryPath     = "/cube/query/mdx"
	DiscoveryPath = "/cube/discovery"
)

// RequestIDHeader carries the client-generated request id.
const RequestIDHeader = "X-Request-Id"

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a non-JSON error body is quoted in errors.
const maxErrorBody = 512

var _ Engine = (*Client)(nil)

// Client talks to an engine over HTTP. It is safe for concurrent use.
type Client struct {
	base    string
	token   string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	ids     IDGenerator
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sends the token as a bearer credential on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request, on top of the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given
// burst. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithIDGenerator replaces the UUIDv7 request id generator.
func WithIDGenerator(g IDGenerator) ClientOption {
	return func(c *Client) {
		c.ids = g
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a client for the engine at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queryRequest struct {
	MDX string `json:"mdx"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *envelopeError  `json:"error"`
}

type envelopeError struct {
	ErrorClass string `json:"errorClass"`
	Message    string `json:"message"`
}

// ExecuteQuery implements Engine.
func (c *Client) ExecuteQuery(ctx context.Context, text string) (*cellset.Cellset, error) {
	body, err := json.Marshal(queryRequest{MDX: text})
	if err != nil {
		return nil, fmt.Errorf("encode query request: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, QueryPath, body)
	if err != nil {
		return nil, err
	}
	return cellset.DecodeBytes(data)
}

// FetchSchema implements Engine.
func (c *Client) FetchSchema(ctx context.Context) (*cube.Discovery, error) {
	data, err := c.do(ctx, http.MethodGet, DiscoveryPath, nil)
	if err != nil {
		return nil, err
	}
	d, err := cube.DecodeDiscovery(bytes.NewReader(data))
	if err != nil {
		return nil, qerr.EngineUnavailable(err, "engine returned an unreadable discovery")
	}
	return d, nil
}

// do sends one request and returns the envelope's data.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	id := c.ids.Generate()
	log := c.logger.With("request_id", id, "method", method, "path", path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, qerr.EngineUnavailable(err, "rate limiter").With("request_id", id)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, id)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("engine request failed", "error", err)
		return nil, qerr.EngineUnavailable(err, "%s %s", method, path).With("request_id", id)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, qerr.EngineUnavailable(err, "read response of %s %s", method, path).With("request_id", id)
	}
	log.Debug("engine request done", "status", resp.StatusCode, "duration", time.Since(start), "bytes", len(raw))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, qerr.EngineUnavailable(nil, "engine returned %d: %s", resp.StatusCode, errorMessage(env, decodeErr, raw)).
			With("request_id", id).
			With("status", strconv.Itoa(resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, qerr.MalformedCellset("engine response is not a JSON envelope: %v", decodeErr).With("request_id", id)
	}
	if env.Status != "success" {
		return nil, qerr.EngineUnavailable(nil, "engine reported %q: %s", env.Status, errorMessage(env, nil, raw)).
			With("request_id", id)
	}
	return env.Data, nil
}

func errorMessage(env envelope, decodeErr error, raw []byte) string {
	if decodeErr == nil && env.Error != nil && env.Error.Message != "" {
		if env.Error.ErrorClass != "" {
			return env.Error.ErrorClass + ": " + env.Error.Message
		}
		return env.Error.Message
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	if text == "" {
		return "empty response"
	}
	return text
}
