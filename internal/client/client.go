package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/server"
	"github.com/muurk/blescan/internal/snapshot"
	"github.com/muurk/blescan/internal/version"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the per-request timeout
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the number of extra attempts after a retryable failure
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the delay before the first retry
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// maxBodySize bounds how much of a response is read
	maxBodySize = 4 << 20
)

// Client fetches snapshots from a blescan server
type Client struct {
	// BaseURL is the server root (e.g., "http://192.168.1.20:3000")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts for retryable failures
	MaxRetries int

	// RetryDelay is the initial delay between attempts; it doubles up to MaxRetryDelay
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// New creates a client for the server at baseURL. A missing scheme
// defaults to http.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the per-request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior. maxRetries 0 disables retries.
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Devices returns the server's current device snapshot in scan order
func (c *Client) Devices(ctx context.Context) ([]snapshot.Device, error) {
	var devices []snapshot.Device
	if err := c.getJSON(ctx, "/devices", &devices); err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []snapshot.Device{}
	}
	return devices, nil
}

// Health returns the server's status report
func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var health server.HealthResponse
	if err := c.getJSON(ctx, "/healthz", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// getJSON performs GET path with retries and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return classify("request canceled", ctx.Err())
			case <-time.After(delay):
			}

			delay *= 2
			if c.MaxRetryDelay > 0 && delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		err := c.getJSONAttempt(ctx, path, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

func (c *Client) getJSONAttempt(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classify(fmt.Sprintf("GET %s failed", path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return newHTTPError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return classify("failed to read response body", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newParseError(fmt.Sprintf("invalid JSON from %s", path), err)
	}
	return nil
}
