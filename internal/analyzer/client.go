// Package analyzer talks to the generative model used for content analysis.
// The model is a black box: it takes a prompt plus optional JPEG frames and
// answers with free text. All structure is imposed by the caller's parsing.
package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medialint/scene-validator/internal/metrics"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// ClientConfig carries the configurable parameters for the Gemini client.
type ClientConfig struct {
	// APIKey authenticates against the generative language API. Required.
	APIKey string

	// Model is the model identifier, e.g. "gemini-1.5-pro-latest". Required.
	Model string

	// BaseURL overrides the API endpoint. Tests point this at a local server.
	BaseURL string

	// Timeout is the per-attempt request timeout. Defaults to 60s.
	Timeout time.Duration

	// Retries is how many times a failed call is retried. Defaults to 0.
	Retries int

	HTTPClient *http.Client
	Metrics    *metrics.Registry
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	timeout time.Duration
	retries int
	metrics *metrics.Registry
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("analyzer api key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("analyzer model required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		timeout: timeout,
		retries: retries,
		metrics: cfg.Metrics,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and optional JPEG frames to the model and
// returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string, images [][]byte) (string, error) {
	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: prompt})
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(img),
		}})
	}
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("analyzer marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	attempts := c.retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := c.generateOnce(ctx, url, body)
		if err == nil {
			c.count("success")
			return text, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}
	c.count("error")
	return "", fmt.Errorf("analyzer generate failed: %w", lastErr)
}

func (c *Client) generateOnce(ctx context.Context, url string, body []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("response contained no candidates")
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.AnalyzerRequestsTotal.WithLabelValues(outcome).Inc()
	}
}
