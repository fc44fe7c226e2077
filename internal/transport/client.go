// Package transport issues JSON requests against the shelter API and
// normalizes failures into *types.TransportError values.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// HeaderRequestID carries a per-request UUID for server-side correlation.
const HeaderRequestID = "X-Request-ID"

// Options are the optional parts of a request.
type Options struct {
	Params  types.Params
	Body    any
	Headers map[string]string
}

// Response is a decoded API response. Data is the raw JSON payload decoded
// into Go values; use Unwrap to strip the {data: ...} envelope.
type Response struct {
	Status int
	Data   any
}

// Doer is the request function the store depends on.
type Doer interface {
	Do(ctx context.Context, method, path string, opts Options) (*Response, error)
}

// Client is the net/http implementation of Doer.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request. Zero leaves the http.Client default (none).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Do sends one request. Any failure, including a non-2xx status, is returned
// as a *types.TransportError whose Message prefers the server's message.
func (c *Client) Do(ctx context.Context, method, path string, opts Options) (*Response, error) {
	target := c.resolve(path, opts.Params)

	var body io.Reader
	if opts.Body != nil {
		buf, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &types.TransportError{Message: fmt.Sprintf("encoding request body: %s", err), Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &types.TransportError{Message: err.Error(), Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method), zap.String("url", target),
			zap.String("request_id", reqID), zap.Error(err))
		return nil, normalizeNetworkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("reading response: %s", err), Err: err}
	}
	c.log.Debug("request done",
		zap.String("method", method), zap.String("url", target),
		zap.String("request_id", reqID), zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	data, decodeErr := decodeBody(raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, data)
	}
	if decodeErr != nil {
		return nil, &types.TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("decoding response: %s", decodeErr), Err: decodeErr}
	}
	return &Response{Status: resp.StatusCode, Data: data}, nil
}

func (c *Client) resolve(path string, params types.Params) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			switch vs := v.(type) {
			case nil:
				continue
			case []string:
				for _, s := range vs {
					q.Add(k, s)
				}
			case []any:
				for _, e := range vs {
					q.Add(k, cast.ToString(e))
				}
			default:
				q.Set(k, cast.ToString(v))
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// statusError builds the error for a non-2xx response. A string "message"
// field in the body wins; otherwise the status line is used.
func statusError(status int, body any) error {
	base := fmt.Errorf("request failed with status code %d", status)
	if m, ok := body.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return &types.TransportError{Status: status, Message: msg, Err: base}
		}
	}
	return &types.TransportError{Status: status, Message: base.Error(), Err: base}
}

func normalizeNetworkError(err error) error {
	msg := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) {
		switch {
		case uerr.Timeout():
			msg = "request timed out"
		case uerr.Err != nil:
			msg = uerr.Err.Error()
		}
	}
	if errors.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return &types.TransportError{Message: msg, Err: err}
}
