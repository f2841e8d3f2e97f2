// Package api implements the authenticated JSON request client for the
// GeoAsistencia backend. The bearer credential is read fresh from the session
// store on every call, so a logout between calls is always honored. The client
// never retries: retry policy, if any, belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/geoasistencia/console/internal/errors"
	"github.com/geoasistencia/console/internal/metrics"
	"github.com/geoasistencia/console/internal/session"
)

// ActionTokenHeader carries a short-lived action capability. Capabilities are
// always sent out-of-band, never in the body they authorize.
const ActionTokenHeader = "X-Action-Token"

// RequestError is the uniform failure surfaced for non-2xx responses.
// Message is the response body text when present, else "Error <status>".
type RequestError struct {
	Status  int
	Message string
}

// Error returns the backend's message verbatim so commands can surface it
// inline without rewording (e.g. "Contraseña incorrecta").
func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap maps well-known statuses onto domain sentinels so callers can branch
// with errors.Is without inspecting status codes.
func (e *RequestError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	default:
		return nil
	}
}

// Client wraps outbound calls with the ambient bearer credential and uniform
// error surfacing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Loader
	limiter    *rate.Limiter
	metrics    metrics.ClientMetrics
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests and to
// set the request timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter throttles outbound requests. The limiter waits before each
// request; it never drops one.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics records outbound request metrics.
func WithMetrics(m metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger for request-level debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a request client for the given backend base URL. The
// loader provides the ambient credential; pass the session store.
func NewClient(baseURL string, sessions session.Loader, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		sessions:   sessions,
		metrics:    metrics.NewNoOpClientMetrics(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	actionToken string
	bearer      string
	bearerSet   bool
}

// WithActionToken attaches a short-lived action capability via the
// X-Action-Token header.
func WithActionToken(token string) RequestOption {
	return func(rc *requestConfig) { rc.actionToken = token }
}

// WithBearer replaces the ambient session credential for this request.
// Used by the PII reveal fetch, which authenticates with the reveal token
// instead of the login token.
func WithBearer(token string) RequestOption {
	return func(rc *requestConfig) {
		rc.bearer = token
		rc.bearerSet = true
	}
}

// Get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post performs an authenticated POST with a JSON body and decodes the
// response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put performs an authenticated PUT with a JSON body and decodes the
// response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	rc := &requestConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.Wrap(err, "rate limiter wait")
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, "failed to build request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	if rc.bearerSet {
		if rc.bearer != "" {
			req.Header.Set("Authorization", "Bearer "+rc.bearer)
		}
	} else {
		// Read the credential fresh: the session may have been cleared since
		// the client was constructed.
		sess, err := c.sessions.Load()
		if err != nil {
			return err
		}
		if sess.Authenticated() {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}

	if rc.actionToken != "" {
		req.Header.Set(ActionTokenHeader, rc.actionToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(ctx, method, sanitizePath(path), 0, time.Since(start))
		return apperrors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordRequest(ctx, method, sanitizePath(path), resp.StatusCode, time.Since(start))
		return apperrors.Wrap(err, "failed to read response body")
	}

	c.metrics.RecordRequest(ctx, method, sanitizePath(path), resp.StatusCode, time.Since(start))
	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", sanitizePath(path)),
		slog.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = fmt.Sprintf("Error %d", resp.StatusCode)
		}
		return &RequestError{Status: resp.StatusCode, Message: message}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperrors.Wrap(err, "failed to decode response body")
		}
	}
	return nil
}

var pathIDPattern = regexp.MustCompile(`/(?:[0-9a-fA-F]{8}-[0-9a-fA-F-]{27,}|\d+)(/|$)`)

// sanitizePath collapses identifier segments so metric labels keep a bounded
// cardinality, and drops query strings.
func sanitizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for {
		replaced := pathIDPattern.ReplaceAllString(path, "/:id$1")
		if replaced == path {
			return path
		}
		path = replaced
	}
}
