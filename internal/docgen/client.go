// Package docgen wraps the external document-generation service.
package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	kerrors "github.com/Addis4/kt-ai/internal/errors"
	"github.com/Addis4/kt-ai/internal/explore"
	"github.com/Addis4/kt-ai/internal/metrics"
	"github.com/Addis4/kt-ai/internal/requestid"
)

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the document-generation endpoint.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClient creates a document-generation client. Generation renders a
// whole document, so the timeout is generous.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger.With().Str("component", "docgen").Logger(),
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

type generateRequest struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	Prompt    string `json:"prompt"`
	Format    string `json:"format"`
}

type generateResponse struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// GenerateDoc implements explore.DocGenerator.
func (c *Client) GenerateDoc(ctx context.Context, req explore.DocRequest) (*explore.DocResult, error) {
	payload := generateRequest{
		SessionID: req.SessionID,
		Title:     req.Title,
		Prompt:    req.Prompt,
		Format:    string(req.Format),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-doc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestid.FromContext(ctx))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.observe(start)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, kerrors.NewAPIError("docgen", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding generate response: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("generate response missing url")
	}

	return &explore.DocResult{FileName: out.FileName, URL: out.URL}, nil
}

func (c *Client) observe(start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveUpstream("docgen", time.Since(start).Seconds())
	}
}
