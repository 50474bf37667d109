// Package httpclient provides a small JSON HTTP client with retries.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crosspool/poolarb/internal/apperror"
)

// Client wraps http.Client with a base URL, default headers and retry policy.
type Client struct {
	base       string
	httpClient *http.Client
	headers    map[string]string
	maxRetries int
	retryWait  time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHeader adds a default header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRetries sets the retry count and wait between attempts.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryWait = wait
	}
}

// New creates a Client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:       baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		headers:    make(map[string]string),
		maxRetries: 2,
		retryWait:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON performs a GET against path, decoding the response body into out.
// Transient failures (network errors, 5xx) are retried.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryWait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		body, err := c.get(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return apperror.Internal(apperror.CodeFeedDecodeError, u, err)
		}
		return nil
	}

	return apperror.External(apperror.CodeExternalServiceError, u, lastErr)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithContext(fmt.Sprintf("%s returned %d", u, resp.StatusCode)))
	}
	return body, nil
}
