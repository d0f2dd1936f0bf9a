package targets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/kipbench/internal/tracing"
)

const (
	maxBodyReadSize    = 1 << 20
	maxLoggedBodyBytes = 256
)

var errMissingURL = errors.New("http target requires a URL")

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) ErrorLabel() string { return "HTTP error response" }

// HTTPTarget issues a GET per invocation and drains the response.
// Responses with status >= 400 are returned as *HTTPError.
type HTTPTarget struct {
	client    *http.Client
	url       string
	propagate bool
}

// WithPropagation makes every request carry the W3C trace context found in
// the invocation context.
func (t *HTTPTarget) WithPropagation(enabled bool) *HTTPTarget {
	t.propagate = enabled
	return t
}

func NewHTTP(client *http.Client, rawURL string) (*HTTPTarget, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errMissingURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("http target url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("http target url %q: scheme must be http or https", rawURL)
	}
	if client == nil {
		client = NewClient(0)
	}
	return &HTTPTarget{client: client, url: u.String()}, nil
}

func (t *HTTPTarget) Do(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return err
	}
	if t.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Body read errors are non-fatal; the status decides the outcome.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if resp.StatusCode >= 400 {
		snippet := body
		if len(snippet) > maxLoggedBodyBytes {
			snippet = snippet[:maxLoggedBodyBytes]
		}
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return nil
}

// NewClient returns an HTTP client with pooled keep-alive connections
// sized for concurrent workers. A non-positive timeout means none.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
