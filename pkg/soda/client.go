// Package soda is a thin client for the Socrata Open Data API (SODA).
// It builds resource URLs and SoQL query strings, attaches an optional
// application token, and decodes the returned rows. It deliberately does
// not retry, page, or cache; callers own those policies.
package soda

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tara-sullivan/oda-utils/pkg/httpclient"
)

const (
	// DefaultHost is the NYC Open Data portal.
	DefaultHost = "data.cityofnewyork.us"

	// TokenEnv is the environment variable holding the app token.
	TokenEnv = "SOCRATA_APP"

	// DefaultTimeout bounds queries that set no explicit timeout.
	DefaultTimeout = 30 * time.Second

	appTokenHeader = "X-App-Token"
)

// Record is one result row, keyed by column name.
type Record map[string]any

// Token reads the app token from the SOCRATA_APP environment variable at
// call time. An empty result is not an error; requests are simply sent
// unauthenticated.
func Token() string { return os.Getenv(TokenEnv) }

// Client queries datasets on a single Socrata host.
type Client struct {
	host    string
	token   string
	timeout time.Duration
	http    httpclient.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHost targets a data portal other than the default.
func WithHost(host string) Option {
	return func(c *Client) {
		if h := strings.TrimSpace(host); h != "" {
			c.host = h
		}
	}
}

// WithToken attaches an app token to every request. An empty token leaves
// requests unauthenticated.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout sets the default per-query timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient injects a custom transport, mainly for tests.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a client for the configured host.
func NewClient(opts ...Option) *Client {
	c := &Client{
		host:    DefaultHost,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		// Deadlines are applied per call via context, so the underlying
		// transport carries no timeout of its own.
		c.http = httpclient.NewRestyClient(0)
	}
	return c
}

// Host returns the portal the client targets.
func (c *Client) Host() string { return c.host }

// Fetch runs one query and returns the decoded rows. The call blocks for at
// most the query timeout (or the client default). Failures are classified:
// a missing dataset id wraps ErrMissingDataset, a non-2xx response is a
// *StatusError, an exceeded deadline wraps ErrTimeout, and any other
// transport failure wraps ErrNetwork.
func (c *Client) Fetch(ctx context.Context, q Query) ([]Record, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	timeout := q.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	headers := map[string]string{"Accept": "application/json"}
	if c.token != "" {
		headers[appTokenHeader] = c.token
	}

	resp, err := c.http.Get(ctx, q.requestURL(c.host), headers)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &StatusError{Code: code, Body: bodySnippet(body)}
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode response for dataset %s: %w", q.Dataset, err)
	}
	return records, nil
}

// Fetch runs a one-off query against the default client configuration,
// reading the app token from the environment at call time.
func Fetch(ctx context.Context, q Query) ([]Record, error) {
	return NewClient(WithToken(Token())).Fetch(ctx, q)
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
