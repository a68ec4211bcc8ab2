// Package fetch retrieves source pages and detail pages over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/seminar-cal/internal/logger"
)

const (
	DefaultUserAgent = "seminar-cal/1.0 (github.com/pfrederiksen/seminar-cal)"
	DefaultTimeout   = 30 * time.Second

	// MaxBodySize caps how much of a response body is read.
	MaxBodySize = 10 << 20
)

// ErrBlocked is returned when the origin refuses the request (403 or 429).
var ErrBlocked = errors.New("request blocked by origin")

// StatusError reports an unexpected HTTP status. URL has its query removed.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Fetcher returns the body of the page at rawURL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Client is the HTTP Fetcher.
type Client struct {
	httpClient *http.Client
	userAgent  string
	headers    map[string]string

	retries      uint64
	retryInitial time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.headers[name] = value
	}
}

// WithRetry retries network errors and 5xx responses up to max times with
// exponential backoff starting at initial. Blocked and other 4xx responses
// are never retried.
func WithRetry(max uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.retries = max
		if initial > 0 {
			c.retryInitial = initial
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		headers:    make(map[string]string),

		retryInitial: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET request and returns the body. A 403 or 429 response
// yields an error wrapping ErrBlocked; any other non-200 status yields a
// *StatusError.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if c.retries == 0 {
		return c.fetchOnce(ctx, rawURL)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)

	var body []byte
	err := backoff.RetryNotify(func() error {
		var err error
		body, err = c.fetchOnce(ctx, rawURL)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Debug("Retrying fetch", logger.Fields{"url": RedactURL(rawURL), "wait": wait.String(), "error": err.Error()})
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// retryable reports whether a failed fetch may succeed on a later attempt.
func retryable(err error) bool {
	if errors.Is(err, ErrBlocked) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 500
	}
	return true
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.5")
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = RedactURL(urlErr.URL)
		}
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d from %s", ErrBlocked, resp.StatusCode, RedactURL(rawURL))
	default:
		return nil, &StatusError{URL: RedactURL(rawURL), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// RedactURL returns rawURL without its query, fragment or user info. Errors
// and log fields carry only redacted URLs.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	return u.String()
}
