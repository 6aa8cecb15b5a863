package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"floatdeck/internal/config"
	"floatdeck/internal/types"
)

const summarizerUserAgent = "FloatDeck-Summarizer/1.0"

// SummarizerClient calls the chat summarization backend, an OpenAI-style
// chat completions API.
type SummarizerClient struct {
	base    *BaseClient
	baseURL string
	apiKey  types.SecretString
	model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewSummarizerClient creates a client from the summarizer configuration.
func NewSummarizerClient(cfg config.SummarizerConfig, opts ...BaseClientOption) *SummarizerClient {
	return &SummarizerClient{
		base: NewBaseClient(
			&http.Client{Timeout: cfg.Timeout},
			"summarizer",
			DefaultRetryPolicy(),
			summarizerUserAgent,
			types.ErrCodeUpstreamSummarizer,
			opts...,
		),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Summarize sends the system and user prompts to the summarization backend
// and returns the generated text.
func (c *SummarizerClient) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   600,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal summarizer request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build summarizer request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := c.apiKey.Unmask(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewAppError(
			types.ErrCodeUpstreamSummarizer,
			fmt.Sprintf("summarizer returned status %d", resp.StatusCode),
			nil,
		)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamSummarizer, "failed to decode summarizer response", err)
	}
	if len(completion.Choices) == 0 {
		return "", types.NewAppError(types.ErrCodeUpstreamSummarizer, "summarizer returned no choices", nil)
	}

	return completion.Choices[0].Message.Content, nil
}
