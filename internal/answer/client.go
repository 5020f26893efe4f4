// Package answer wraps the external question-answering service.
package answer

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

// Client calls the answering service's explore endpoint. It performs no
// retries: one ask is exactly one upstream request.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewClient creates an answering service client.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With().Str("component", "answer").Logger(),
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

type exploreContext struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	CommitID string `json:"commit_id,omitempty"`
}

type exploreRequest struct {
	Question  string         `json:"question"`
	Context   exploreContext `json:"context"`
	SessionID string         `json:"session_id"`
}

type explorePayloadSource struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Path    string `json:"path"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt"`
}

type exploreResponse struct {
	Answer     string                 `json:"answer"`
	Sources    []explorePayloadSource `json:"sources"`
	Followups  []string               `json:"followups"`
	Confidence string                 `json:"confidence"`
	ModelUsed  string                 `json:"model_used"`
}

// Answer implements explore.Answerer.
func (c *Client) Answer(ctx context.Context, req explore.AnswerRequest) (*explore.AnswerResult, error) {
	payload := exploreRequest{
		Question:  req.Question,
		SessionID: req.SessionID,
		Context: exploreContext{
			Type:     string(req.Context.Type),
			Owner:    req.Context.Owner,
			Repo:     req.Context.Resource,
			CommitID: req.Context.PinnedRevision(),
		},
	}

	start := time.Now()
	resp, err := c.post(ctx, "/api/explore", payload)
	c.observe(start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body exploreResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding explore response: %w", err)
	}

	result := &explore.AnswerResult{
		Answer:     body.Answer,
		Followups:  body.Followups,
		Confidence: body.Confidence,
		ModelUsed:  body.ModelUsed,
	}
	for _, s := range body.Sources {
		result.Sources = append(result.Sources, explore.Source{
			Type:    s.Type,
			ID:      s.ID,
			Path:    s.Path,
			URL:     s.URL,
			Excerpt: s.Excerpt,
		})
	}
	return result, nil
}

// Ping reports whether the answering service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinging answering service: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestid.FromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, kerrors.NewAPIError("answer", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return resp, nil
}

func (c *Client) observe(start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveUpstream("answer", time.Since(start).Seconds())
	}
}
