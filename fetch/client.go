// Package fetch provides the external-data fetch helper used by discovery
// and validation tools.
//
// Information Hiding:
// - Retry policy and backoff hidden behind Client
// - Transient error classification hidden
// - Request memoization hidden behind Cache
package fetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const maxBodyBytes = 10 << 20

// Options configures retries and the per-attempt HTTP timeout.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
	UserAgent  string
}

func (o Options) normalize() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "drwin/1.0"
	}
	return o
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
}

// signature identifies a request for memoization.
func (r Request) signature() string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(r.Method)))
	h.Write([]byte{0})
	h.Write([]byte(r.URL))
	h.Write([]byte{0})
	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k + "=" + r.Header[k] + "\n"))
	}
	h.Write(r.Body)
	return hex.EncodeToString(h.Sum(nil))
}

// Client performs HTTP requests with retry and optional memoization.
type Client struct {
	http     *http.Client
	executor failsafe.Executor[[]byte]
	cache    *Cache
	opts     Options
	logger   *slog.Logger
}

// NewClient creates a fetch client. cache may be nil to disable memoization.
func NewClient(opts Options, cache *Cache) *Client {
	opts = opts.normalize()
	retry := retrypolicy.NewBuilder[[]byte]().
		WithBackoff(opts.BaseDelay, opts.MaxDelay).
		WithMaxRetries(opts.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ []byte, err error) bool {
			return shouldRetry(err)
		}).
		Build()

	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		executor: failsafe.With[[]byte](retry),
		cache:    cache,
		opts:     opts,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests use httptest clients).
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.http = client
	}
	return c
}

// Do executes req, retrying transient failures, and returns the body.
// Successful responses are memoized by request signature.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	load := func(ctx context.Context) ([]byte, error) {
		return c.executor.WithContext(ctx).Get(func() ([]byte, error) {
			return c.attempt(ctx, req)
		})
	}
	if c.cache == nil {
		return load(ctx)
	}
	data, hit, err := c.cache.Get(ctx, req.signature(), load)
	if err == nil && hit {
		c.logger.Debug("fetch cache hit", "url", req.URL)
	}
	return data, err
}

// Get fetches url with GET.
func (c *Client) Get(ctx context.Context, url string, header map[string]string) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url, Header: header})
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	data, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		URL:    url,
		Header: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return err
	}
	return decode(data, url, out)
}

// PostJSON posts body as JSON and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	data, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		URL:    url,
		Header: map[string]string{"Accept": "application/json", "Content-Type": "application/json"},
		Body:   payload,
	})
	if err != nil {
		return err
	}
	return decode(data, url, out)
}

func decode(data []byte, url string, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("fetch attempt failed", "url", req.URL, "error", err)
		return nil, fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		c.logger.Debug("fetch attempt returned error status", "url", req.URL, "status", resp.StatusCode)
		return nil, &StatusError{Code: resp.StatusCode, URL: req.URL, Body: snippet}
	}
	return data, nil
}

// shouldRetry classifies errors: retry network failures, timeouts and
// temporary statuses, never cancellation or client errors. The executor
// stops on its own once the caller's context is done.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
