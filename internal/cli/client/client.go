// Package client provides the HTTPS transport used by ccclogin.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

const (
	contentTypeText = "text/plain"
	// maxResponseSize bounds the response body; a credential exchange answer
	// is a few hundred bytes.
	maxResponseSize = 1 << 20
)

// StatusError is returned for a non-2xx HTTP answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Code)
	if text == "" {
		return fmt.Sprintf("server returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("server returned HTTP %d %s", e.Code, text)
}

// HTTPStatus returns the HTTP status code.
func (e *StatusError) HTTPStatus() int {
	return e.Code
}

// Client posts protocol messages over HTTPS.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Options configures NewClient.
type Options struct {
	// Host is the server's host[:port], used for fingerprint pinning.
	Host string
	// CACert is an optional PEM bundle. When empty, trust-on-first-use applies.
	CACert string
	// InsecureSkipVerify disables all certificate checks.
	InsecureSkipVerify bool
	// UserAgent is sent with every request.
	UserAgent string
	// Prompt decides whether to trust an unknown certificate. Nil rejects.
	Prompt CertificatePrompt
	// KnownServers stores accepted fingerprints. Nil uses the default store.
	KnownServers FingerprintStore
}

// NewClient creates a Client on top of a pooled cleanhttp client. No overall
// timeout is set; callers bound each request through its context.
func NewClient(opts Options) (*Client, error) {
	transport, err := NewTOFUTransport(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Transport = transport

	return &Client{
		httpClient: httpClient,
		userAgent:  opts.UserAgent,
	}, nil
}

// NewClientWithHTTPClient wraps an existing http.Client, e.g. one from httptest.
func NewClientWithHTTPClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Post sends body to url and returns the response body of a 2xx answer.
// Other statuses yield a *StatusError. Nothing is retried.
func (c *Client) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeText)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(respBytes, 200)}
	}

	if len(respBytes) > maxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseSize)
	}

	return respBytes, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
