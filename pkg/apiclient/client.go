// Package apiclient fetches dynamic option lists and submits collected form
// data over HTTP.
package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUpstream wraps every non-2xx response from a remote endpoint.
	ErrUpstream = errors.New("apiclient: upstream error")
	// ErrNotList is returned when an options response does not resolve to a
	// JSON array.
	ErrNotList = errors.New("apiclient: response is not a list")
	// ErrNoURL is returned when a request has no target.
	ErrNoURL = errors.New("apiclient: url is required")
)

// StatusError carries the status and decoded body of a failed request.
type StatusError struct {
	StatusCode int
	Message    string
	Body       map[string]any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("apiclient: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("apiclient: server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithHandler routes every request to an in-process handler, typically a
// mock API server. Relative URLs resolve against http://journey360.local.
func WithHandler(handler http.Handler) Option {
	return func(c *Client) {
		if handler == nil {
			return
		}
		c.http = &http.Client{Transport: handlerTransport{handler: handler}}
		if c.baseURL == nil {
			c.baseURL, _ = url.Parse("http://journey360.local")
		}
	}
}

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base == "" {
			return
		}
		if parsed, err := url.Parse(base); err == nil {
			c.baseURL = parsed
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client performs option lookups and submissions.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	timeout time.Duration
	logger  *zap.Logger
}

// New constructs a Client.
func New(options ...Option) *Client {
	c := &Client{
		http:    http.DefaultClient,
		timeout: 10 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

func (c *Client) resolve(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoURL
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse url %q: %w", raw, err)
	}
	if !target.IsAbs() && c.baseURL != nil {
		target = c.baseURL.ResolveReference(target)
	}
	if !target.IsAbs() {
		return nil, fmt.Errorf("apiclient: url %q is relative and no base url is configured", raw)
	}
	return target, nil
}

type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
