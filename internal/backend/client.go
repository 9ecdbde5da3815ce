// Package backend talks to the recommendation service: question pages, the
// flattened flow tree, evaluation of answers and session persistence.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/log"
	"github.com/felixgeelhaar/stackwizard/internal/metrics"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/telemetry"
	"github.com/felixgeelhaar/stackwizard/internal/version"
)

// DefaultTimeout bounds every request when no timeout is configured
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Client is the recommendation service API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithMetrics records request counts and latency into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.Metrics = m }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

// NewClient creates a new API client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Questions fetches the questions of one phase
func (c *Client) Questions(ctx context.Context, phase int) ([]questionnaire.Question, error) {
	var questions []questionnaire.Question
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/questions/%d", phase), "/questions", nil, &questions); err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].Phase == 0 {
			questions[i].Phase = phase
		}
		if questions[i].Options == nil {
			questions[i].Options = []questionnaire.Option{}
		}
	}
	return questions, nil
}

// Tree fetches the whole flow and flattens it into one ordered question list.
// The endpoint may answer with an array of phase nodes or a single root node.
func (c *Client) Tree(ctx context.Context) ([]questionnaire.Question, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/api/questions", "/api/questions", nil, &raw); err != nil {
		return nil, err
	}

	var nodes []questionnaire.Node
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var root questionnaire.Node
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBackendDecode, "failed to decode flow tree", err)
		}
		nodes = []questionnaire.Node{root}
	} else if err := json.Unmarshal(trimmed, &nodes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendDecode, "failed to decode flow tree", err)
	}

	return questionnaire.Flatten(questionnaire.PhaseNodes(nodes)), nil
}

// Phases lists the phase headings known to the backend
func (c *Client) Phases(ctx context.Context) ([]questionnaire.PhaseSummary, error) {
	var phases []questionnaire.PhaseSummary
	if err := c.call(ctx, http.MethodGet, "/phases", "/phases", nil, &phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// Evaluate submits the answers and returns the recommendations by category
func (c *Client) Evaluate(ctx context.Context, answers []questionnaire.Answer) (questionnaire.Recommendations, error) {
	if answers == nil {
		answers = []questionnaire.Answer{}
	}
	var recs questionnaire.Recommendations
	err := c.call(ctx, http.MethodPost, "/evaluate", "/evaluate", answers, &recs)
	c.Metrics.Evaluated(err == nil)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = questionnaire.Recommendations{}
	}
	return recs, nil
}

// SaveResult is the acknowledgement of /save-session
type SaveResult struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// SaveSession persists a session record
func (c *Client) SaveSession(ctx context.Context, session questionnaire.Session) (SaveResult, error) {
	var res SaveResult
	err := c.call(ctx, http.MethodPost, "/save-session", "/save-session", session, &res)
	c.Metrics.SessionSaved(err == nil)
	return res, err
}

// call performs one traced, measured round trip. endpoint is the low
// cardinality label used for metrics.
func (c *Client) call(ctx context.Context, method, path, endpoint string, body, target any) error {
	ctx, span := telemetry.StartBackendSpan(ctx, method, path)
	defer span.End()

	start := time.Now()
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		c.Metrics.ObserveRequest(endpoint, 0, time.Since(start))
		c.Metrics.Error(string(errors.CodeOf(err)))
		telemetry.RecordError(span, err)
		c.Logger.DebugContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return err
	}

	c.Metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if err := parseResponse(resp, path, target); err != nil {
		c.Metrics.Error(string(errors.CodeOf(err)))
		telemetry.RecordError(span, err)
		c.Logger.DebugContext(ctx, "backend response rejected", "method", method, "path", path, "status", resp.StatusCode, "error", err)
		return err
	}

	telemetry.RecordSuccess(span)
	c.Logger.DebugContext(ctx, "backend request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	return nil
}

// doRequest performs an HTTP request with a JSON body
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeBackendEncode, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendRequest, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	req.Header.Set("User-Agent", version.GetInfo().UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackendRequest, "failed to perform request", err).
			WithSuggestion("Check that the backend is running at " + c.BaseURL)
	}

	return resp, nil
}

// errorResponse covers the error bodies the service produces: FastAPI's
// {"detail": ...} plus the generic error/message shapes.
type errorResponse struct {
	Detail  any    `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	switch d := e.Detail.(type) {
	case string:
		if d != "" {
			return d
		}
	case nil:
	default:
		if b, err := json.Marshal(d); err == nil {
			return string(b)
		}
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// parseResponse parses the response body into the target
func parseResponse(resp *http.Response, path string, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		var errResp errorResponse
		detail := ""
		if err := json.Unmarshal(body, &errResp); err == nil {
			detail = errResp.text()
		}
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return errors.NewBackendStatusError(path, resp.StatusCode, detail)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return errors.Wrap(errors.ErrCodeBackendDecode, fmt.Sprintf("failed to decode %s response", path), err)
		}
	}

	return nil
}
