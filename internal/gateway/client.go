// Package gateway is the HTTP adapter over the remote event backend.
//
// One method per backend verb; each returns the parsed response envelope or
// an *Error carrying the HTTP status and server message. The gateway keeps
// no state beyond its rate limiter and never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eventdesk/eventdesk-client/internal/domain"
	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/id"
	"github.com/eventdesk/eventdesk-client/internal/ratelimit"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRPS       = 10.0
	defaultBurst     = 20
	defaultUserAgent = "eventdesk-client/1.0"

	maxBodyBytes = 10 << 20
)

// TokenSource supplies the bearer token for authenticated calls.
// An empty token means the call goes out without Authorization.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Options configures a Client.
type Options struct {
	BaseURL           string // e.g. http://localhost:8080/api
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string

	Tokens TokenSource
	// OnUnauthorized runs after any call answered with 401.
	OnUnauthorized func()

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a rate-limited client for the event backend.
type Client struct {
	base           *url.URL
	http           *http.Client
	limiter        *ratelimit.KeyedRateLimiter
	tokens         TokenSource
	onUnauthorized func()
	userAgent      string
	logger         *slog.Logger
}

// New creates a gateway client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base URL %q", opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		base:           base,
		http:           httpClient,
		limiter:        ratelimit.New(opts.RequestsPerSecond, opts.Burst),
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		userAgent:      opts.UserAgent,
		logger:         opts.Logger,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Result is a decoded response envelope.
type Result[T any] struct {
	Success    bool
	Message    string
	Data       T
	Pagination *domain.Pagination
}

// envelope is the uniform {success, message, data} wrapper.
type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       jsontext.Value     `json:"data"`
	Pagination *domain.Pagination `json:"pagination"`
	Errors     jsontext.Value     `json:"errors"`
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   []string // segments below the base URL; each is escaped
	query  url.Values
	body   any
	// anonymous calls never carry the bearer token.
	anonymous bool
}

// call executes req and decodes the envelope's data with decode.
// A 2xx envelope with success=false is returned as a Result, not an error;
// its data is not decoded.
func call[T any](ctx context.Context, c *Client, req request, decode func(jsontext.Value) (T, error)) (*Result[T], error) {
	status, raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, c.decodeError(req, status, err)
		}
	}

	res := &Result[T]{
		Success:    env.Success,
		Message:    env.Message,
		Pagination: env.Pagination,
	}
	if !env.Success || decode == nil {
		return res, nil
	}

	data, err := decode(env.Data)
	if err != nil {
		return nil, c.decodeError(req, status, err)
	}
	res.Data = data
	return res, nil
}

// send performs the HTTP exchange and returns the body of a 2xx response.
// Non-2xx responses come back as *Error.
func (c *Client) send(ctx context.Context, req request) (int, []byte, error) {
	if err := c.limiter.Wait(ctx, c.base.Host); err != nil {
		return 0, nil, c.wrap(req, 0, domainerrors.Wrap(err, domainerrors.CodeCanceled, "rate limit wait"))
	}

	u := c.base.JoinPath(escapeSegments(req.path)...)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, c.wrap(req, 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "encode request"))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return 0, nil, c.wrap(req, 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "create request"))
	}

	requestID := id.RequestID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.anonymous && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, c.wrap(req, 0, domainerrors.Wrap(ctxErr, domainerrors.CodeCanceled, "request canceled"))
		}
		c.logger.Warn("backend unreachable",
			"op", req.op,
			"method", req.method,
			"path", u.Path,
			"error", err,
		)
		return 0, nil, c.wrap(req, 0, domainerrors.Wrap(err, domainerrors.CodeTransport, domainerrors.TransportMessage))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, c.wrap(req, 0, domainerrors.Wrap(err, domainerrors.CodeTransport, domainerrors.TransportMessage))
	}

	c.logger.Debug("backend request",
		"op", req.op,
		"method", req.method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, raw, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return resp.StatusCode, nil, c.statusError(req, resp.StatusCode, raw)
}

// statusError builds the error for a non-2xx response, keeping the
// server's message and field errors when the body is an envelope.
func (c *Client) statusError(req request, status int, raw []byte) error {
	var env envelope
	var fields []domainerrors.FieldError
	if err := json.Unmarshal(raw, &env); err == nil {
		fields = parseFieldErrors(env.Errors)
	}

	derr := domainerrors.New(domainerrors.FromStatusCode(status), env.Message)
	if len(fields) > 0 {
		derr = derr.WithDetails(fields)
	}
	return c.wrap(req, status, derr)
}

func (c *Client) decodeError(req request, status int, err error) error {
	return c.wrap(req, status, domainerrors.Wrap(err, domainerrors.CodeInternal, "decode response"))
}

func (c *Client) wrap(req request, status int, err error) error {
	return &Error{
		Op:         req.op,
		Method:     req.method,
		Path:       "/" + strings.Join(req.path, "/"),
		StatusCode: status,
		Err:        err,
	}
}

func escapeSegments(segments []string) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = url.PathEscape(s)
	}
	return out
}

// rawFieldError accepts the field-error spellings different backends use.
type rawFieldError struct {
	Field          string `json:"field"`
	Property       string `json:"property"`
	Path           string `json:"path"`
	Message        string `json:"message"`
	DefaultMessage string `json:"defaultMessage"`
}

func parseFieldErrors(raw jsontext.Value) []domainerrors.FieldError {
	if len(raw) == 0 {
		return nil
	}
	var entries []rawFieldError
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	fields := make([]domainerrors.FieldError, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, domainerrors.FieldError{
			Field:   firstNonEmpty(e.Field, e.Property, e.Path),
			Message: firstNonEmpty(e.Message, e.DefaultMessage),
		})
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// isNull reports whether raw is absent or JSON null.
func isNull(raw jsontext.Value) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

var errUnexpectedShape = errors.New("unexpected data shape")
