package hetzner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openclaw/hosted/internal/pkg/config"
)

const defaultBaseURL = "https://api.hetzner.cloud/v1"

// Client issues server control calls against the Hetzner Cloud API. Call
// failures are reported to the caller, who logs them without blocking local
// state transitions; the local record stays the source of truth.
type Client struct {
	Token   string
	BaseURL string

	HTTPClient *http.Client
}

// NewClient creates a Hetzner control client from process configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		Token:      cfg.HetznerAPIToken,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// PowerOff powers down a server by its provider-assigned ID.
func (c *Client) PowerOff(ctx context.Context, serverID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/servers/%d/actions/poweroff", serverID))
}

// DeleteServer permanently deletes a server by its provider-assigned ID.
func (c *Client) DeleteServer(ctx context.Context, serverID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/servers/%d", serverID))
}

func (c *Client) do(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hetzner API %s %s: status %d: %s", method, path, resp.StatusCode, string(body))
	}
	return nil
}
