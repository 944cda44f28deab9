package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DiscoveryDocument is the content of the .adj-valet-port file the backend
// writes on startup.
type DiscoveryDocument struct {
	BackendPort int    `json:"backend_port"`
	BackendURL  string `json:"backend_url"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Discover returns the backend address, locating it on first use:
//
//  1. the discovery document, if DiscoveryURL is set and the advertised
//     backend answers /health
//  2. the first candidate port whose /health answers
//  3. DefaultURL, unverified
//
// The result is cached until ResetConnection. Probing runs without the
// lock; a ResetConnection during discovery keeps the result from being
// cached. A pinned BaseURL is returned without probing.
func (c *Client) Discover(ctx context.Context) (string, error) {
	if c.opts.BaseURL != "" {
		return c.opts.BaseURL, nil
	}

	c.mu.Lock()
	if c.baseURL != "" {
		defer c.mu.Unlock()
		return c.baseURL, nil
	}
	gen := c.generation
	c.mu.Unlock()

	addr, err := c.locate(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		if c.baseURL != "" {
			return c.baseURL, nil
		}
		c.baseURL = addr
	}
	return addr, nil
}

// locate runs the discovery steps in order.
func (c *Client) locate(ctx context.Context) (string, error) {
	if c.opts.DiscoveryURL != "" {
		doc, err := c.readDiscoveryDoc(ctx)
		switch {
		case err != nil:
			c.logger.Debug("discovery document unavailable", "source", c.opts.DiscoveryURL, "error", err)
		case c.probe(ctx, doc.BackendURL):
			addr := strings.TrimRight(doc.BackendURL, "/")
			c.logger.Info("backend discovered", "url", addr, "via", "discovery document")
			return addr, nil
		default:
			c.logger.Debug("advertised backend not healthy", "url", doc.BackendURL)
		}
	}

	for _, candidate := range c.candidates() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if c.probe(ctx, candidate) {
			c.logger.Info("backend discovered", "url", candidate, "via", "port scan")
			return candidate, nil
		}
	}

	c.logger.Warn("backend not found, using default address", "url", c.opts.DefaultURL)
	return c.opts.DefaultURL, nil
}

// candidates lists the probe addresses in port order.
func (c *Client) candidates() []string {
	out := make([]string, 0, c.opts.PortCount)
	for i := 0; i < c.opts.PortCount; i++ {
		out = append(out, fmt.Sprintf("http://%s:%d", c.opts.Host, c.opts.PortStart+i))
	}
	return out
}

// probe reports whether base answers GET /health with a 2xx status.
func (c *Client) probe(ctx context.Context, base string) bool {
	if base == "" {
		return false
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, strings.TrimRight(base, "/")+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// readDiscoveryDoc fetches the discovery document from an http(s) URL or
// reads it from a local file.
func (c *Client) readDiscoveryDoc(ctx context.Context) (*DiscoveryDocument, error) {
	var data []byte
	source := c.opts.DiscoveryURL

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		probeCtx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("discovery document returned %s", resp.Status)
		}
		if data, err = io.ReadAll(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read discovery document: %w", err)
		}
	} else {
		var err error
		if data, err = os.ReadFile(source); err != nil {
			return nil, fmt.Errorf("failed to read discovery document: %w", err)
		}
	}

	var doc DiscoveryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	if doc.BackendURL == "" && doc.BackendPort > 0 {
		doc.BackendURL = fmt.Sprintf("http://%s:%d", c.opts.Host, doc.BackendPort)
	}
	if doc.BackendURL == "" {
		return nil, fmt.Errorf("discovery document has no backend_url")
	}
	return &doc, nil
}
