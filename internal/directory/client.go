package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	kerrors "github.com/Addis4/kt-ai/internal/errors"
	"github.com/Addis4/kt-ai/internal/metrics"
	"github.com/Addis4/kt-ai/internal/requestid"
	"github.com/Addis4/kt-ai/internal/retry"
)

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the generic HTTP directory backend.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	retryCfg   retry.Config
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClient creates an HTTP directory client.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.With().Str("component", "directory").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// SetMetrics sets the metrics collector.
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// SetRetryConfig overrides the retry behavior for directory fetches.
func (c *Client) SetRetryConfig(cfg retry.Config) {
	c.retryCfg = cfg
}

// ListRepositories implements Lister. The listing is an idempotent read,
// so transient upstream failures are retried with backoff.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]Listing, error) {
	path := "/api/github/repos"
	if owner != "" {
		path += "?owner=" + url.QueryEscape(owner)
	}

	var out []Listing
	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		var attemptErr error
		out, attemptErr = c.fetch(ctx, path)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Ping reports whether the directory service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinging directory: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestid.FromContext(ctx))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveUpstream("directory", time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, kerrors.NewAPIError("directory", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out []Listing
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding directory response: %w", err)
	}
	return out, nil
}
