// Package feed is the HTTP transport shared by the upstream API clients.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
)

const (
	maxBodyBytes    = 32 << 20
	maxExcerptBytes = 512
)

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Source, e.StatusCode, e.Body)
}

// Client performs bounded-time JSON requests against one upstream.
type Client struct {
	source     string
	httpClient *http.Client
	headers    http.Header
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header to every request. Empty values are not sent.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a transport for the named source. Requests time out after timeout.
func NewClient(source string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
		headers:    http.Header{"Accept": {"application/json"}},
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source is the label this client reports metrics under.
func (c *Client) Source() string { return c.source }

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.source, err)
	}
	return c.do(req)
}

// PostJSON posts payload encoded as JSON and returns the response body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", c.source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.source, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	for k, v := range c.headers {
		req.Header[k] = v
	}

	start := time.Now()
	body, err := c.roundTrip(req)
	c.metrics.UpstreamDuration.WithLabelValues(c.source).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(c.source, "error").Inc()
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(c.source, "success").Inc()
	c.logger.Debug("upstream request complete",
		"source", c.source,
		"method", req.Method,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}

func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := body
		if len(excerpt) > maxExcerptBytes {
			excerpt = excerpt[:maxExcerptBytes]
		}
		return nil, &StatusError{Source: c.source, StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
	return body, nil
}
