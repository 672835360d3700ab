// Package transport provides the HTTP client shared by the registry
// crawlers: timeouts, a stable User-Agent, pluggable authentication, and
// uniform translation of HTTP failures into typed errors.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/servermap/servermap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// DefaultUserAgent identifies the crawler to registry operators.
const DefaultUserAgent = "servermap-crawler/1.0"

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 10 << 20 // 10 MiB

// Client provides HTTP client functionality with authentication.
type Client struct {
	http       *http.Client
	auth       Authenticator
	credential string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a transport client. A nil authenticator or empty credential
// sends unauthenticated requests.
func New(auth Authenticator, credential string, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: DefaultHTTPTimeout},
		auth:       auth,
		credential: credential,
		userAgent:  DefaultUserAgent,
	}
	if c.auth == nil {
		c.auth = &NoAuth{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication and common headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.credential != "" {
		c.auth.Apply(req, c.credential)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// Get performs a GET request against url and returns the raw response.
// Non-2xx statuses are returned as *errors.APIError tagged with the registry.
func (c *Client) Get(ctx context.Context, registry, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, &errors.APIError{
			Registry: registry,
			Endpoint: url,
			Message:  "request failed",
			Err:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &errors.APIError{
			Registry:   registry,
			Endpoint:   url,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, registry, url string, out any) error {
	resp, err := c.Get(ctx, registry, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return errors.WrapParse("json", url, err)
	}
	return nil
}

// GetBody performs a GET request and returns the response body as a string.
func (c *Client) GetBody(ctx context.Context, registry, url string) (string, error) {
	resp, err := c.Get(ctx, registry, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", errors.WrapIO("read", url, err)
	}
	return string(body), nil
}
