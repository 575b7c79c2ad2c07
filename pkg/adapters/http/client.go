// Package http provides both halves of the engine's HTTP surface: an
// outbound client for the fetch action and an inbound webhook server that
// lets external systems fire triggers.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/listflow/listflow/pkg/ports"
)

const maxResponseBody = 4 << 20

// Client implements the outbound HTTP capability on net/http. It performs
// no automatic retries; retry policy belongs to the configuration author.
type Client struct {
	hc *http.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.hc.Timeout = d }
}

// NewClient creates an outbound HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{hc: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues one request and reads the response body, bounded at 4 MiB.
func (c *Client) Do(ctx context.Context, req ports.HTTPRequest) (ports.HTTPResponse, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return ports.HTTPResponse{}, fmt.Errorf("building request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return ports.HTTPResponse{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return ports.HTTPResponse{}, fmt.Errorf("reading response: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return ports.HTTPResponse{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    string(data),
	}, nil
}
