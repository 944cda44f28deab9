// Package client talks to the ADJ backend service.
//
// The backend is located at runtime (see Discover) and the address is
// cached until a request fails at the connection level. Such a failure
// invalidates the address and the same request is retried exactly once
// after a fresh discovery pass; a second failure is returned to the caller.
// Timeouts and HTTP errors are never retried.
//
// # Usage Example
//
//	c, err := client.New(client.Options{DiscoveryURL: "http://localhost:5173/.adj-valet-port"})
//	if err != nil {
//	    return err
//	}
//	if _, err := c.SetPath(ctx, "/srv/adj"); err != nil {
//	    return err
//	}
//	cfg, err := c.GetConfig(ctx)
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Defaults applied by New for zero Options fields. DefaultPortCount is the
// scan width callers usually want; a zero PortCount disables the scan.
const (
	DefaultURL            = "http://localhost:8000"
	DefaultHost           = "localhost"
	DefaultPortStart      = 8000
	DefaultPortCount      = 20
	DefaultProbeTimeout   = 2 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// Options configures a Client.
type Options struct {
	// BaseURL pins the backend address and disables discovery
	BaseURL string

	// DiscoveryURL locates the discovery document: an http(s) URL or a
	// local file path. Empty skips that discovery step.
	DiscoveryURL string

	// DefaultURL is used unverified when discovery finds nothing
	DefaultURL string

	// Host and ports probed during discovery: PortStart .. PortStart+PortCount-1.
	// A zero PortCount skips the port scan.
	Host      string
	PortStart int
	PortCount int

	// ProbeTimeout bounds each liveness probe
	ProbeTimeout time.Duration

	// RequestTimeout bounds each API request
	RequestTimeout time.Duration

	// ProbeRate limits discovery probes per second (0 = unlimited)
	ProbeRate float64

	// UserAgent is sent with every request
	UserAgent string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a backend client. It is safe for concurrent use.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter

	mu      sync.Mutex
	baseURL string
	// generation changes on every ResetConnection
	generation uint64
}

// New creates a Client, filling unset options with defaults.
func New(opts Options) (*Client, error) {
	if opts.PortCount < 0 {
		return nil, fmt.Errorf("port count must not be negative: %d", opts.PortCount)
	}
	if opts.ProbeTimeout < 0 || opts.RequestTimeout < 0 {
		return nil, fmt.Errorf("timeouts must not be negative")
	}

	if opts.DefaultURL == "" {
		opts.DefaultURL = DefaultURL
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.PortStart == 0 {
		opts.PortStart = DefaultPortStart
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.DefaultURL = strings.TrimRight(opts.DefaultURL, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.ProbeRate > 0 {
		limit = rate.Limit(opts.ProbeRate)
	}

	return &Client{
		opts:       opts,
		httpClient: httpClient,
		logger:     logger.With("component", "backend-client"),
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Addr returns the pinned or cached backend address, or "" before
// discovery.
func (c *Client) Addr() string {
	if c.opts.BaseURL != "" {
		return c.opts.BaseURL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL
}

// ResetConnection forgets the cached address; the next call rediscovers.
func (c *Client) ResetConnection() {
	c.mu.Lock()
	c.baseURL = ""
	c.generation++
	c.mu.Unlock()
}

// do sends one API request, retrying once after rediscovery when the first
// attempt fails at the connection level.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	data, err := c.attempt(ctx, method, path, body)
	if err == nil || !IsConnectionError(err) {
		return data, err
	}

	c.logger.Warn("backend unreachable, rediscovering", "method", method, "path", path, "error", err)
	c.ResetConnection()
	return c.attempt(ctx, method, path, body)
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	base, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}
	url := base + path

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, reqCtx, method, url, err)
	}

	c.logger.Debug("backend request",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

// classify maps a transport error to TimeoutError or ConnectionError. A
// cancelled or expired caller context is returned as is.
func (c *Client) classify(ctx, reqCtx context.Context, method, url string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s: %w", method, url, ctx.Err())
	}

	var netErr net.Error
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Method: method, URL: url, Timeout: c.opts.RequestTimeout, Err: err}
	}
	return &ConnectionError{Method: method, URL: url, Err: err}
}
