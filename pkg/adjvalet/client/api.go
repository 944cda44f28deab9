package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"evalgo.org/adjvalet/models"
)

// PathRequest is the body of POST /path.
type PathRequest struct {
	Path string `json:"path"`
}

// SetPath makes path the backend's active ADJ directory and returns the
// backend's acknowledgement.
func (c *Client) SetPath(ctx context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidArgument)
	}

	body, err := json.Marshal(PathRequest{Path: path})
	if err != nil {
		return "", fmt.Errorf("failed to marshal path: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/path", body)
	if err != nil {
		return "", err
	}
	return acknowledgement(data), nil
}

// GetConfig fetches the assembled document for the active path.
func (c *Client) GetConfig(ctx context.Context) (*models.ADJConfig, error) {
	data, err := c.do(ctx, http.MethodGet, "/assemble", nil)
	if err != nil {
		return nil, err
	}

	var cfg models.ADJConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// UpdateConfig pushes cfg and returns the backend's copy of it.
func (c *Client) UpdateConfig(ctx context.Context, cfg *models.ADJConfig) (*models.ADJConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidArgument)
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/update", body)
	if err != nil {
		return nil, err
	}

	var updated models.ADJConfig
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated config: %w", err)
	}
	return &updated, nil
}

// HealthCheck reports whether the backend answers /health. It never
// returns an error and never triggers the retry.
func (c *Client) HealthCheck(ctx context.Context) bool {
	base, err := c.Discover(ctx)
	if err != nil {
		return false
	}
	return c.probe(ctx, base)
}

// acknowledgement extracts a message from a /path response body.
func acknowledgement(data []byte) string {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	return strings.TrimSpace(string(data))
}
