// Package openai is a minimal HTTP client for an OpenAI-compatible chat
// completions API. It is constructed explicitly and injected into the
// drafting engine; there is no package-level client state.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shiplog-io/shiplog/internal/apperr"
)

const (
	// DefaultAPIBase is the hosted OpenAI endpoint. Any chat-completions
	// compatible server works.
	DefaultAPIBase = "https://api.openai.com/v1"
	// DefaultModel is a sensible low-cost default for changelog drafting.
	DefaultModel = "gpt-4o-mini"
	// DefaultTemperature keeps the output close to the evidence; the tone
	// constraint is enforced here rather than by post-hoc validation.
	DefaultTemperature = 0.2
	// DefaultMaxTokens bounds the drafted document size.
	DefaultMaxTokens = 1500

	defaultTimeout = 60 * time.Second
)

// Config holds the generation parameters.
type Config struct {
	APIKey      string
	APIBase     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client calls the chat completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a generation client. Zero-valued config fields fall back
// to the package defaults; Temperature 0 is respected as-is.
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Generate sends the system and user prompts and returns the text content.
// Failures are classified as Generation errors; a succeeded-but-empty
// completion is reported as empty output, not an error, so the caller can
// fall back.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Generation, "marshaling completion payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(err, apperr.Generation, "building completion request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Generation, "calling text-generation provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", apperr.New(apperr.Generation, "text-generation provider responded with status %s", resp.Status)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(err, apperr.Generation, "decoding completion response")
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
