// Package llm is a small OpenAI-compatible chat client used for structured
// extraction of page content.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/pagedrop/models"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 4 << 20

// Client talks to one configured provider.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewClient creates a client for the provider at baseURL (for example
// "https://api.openai.com/v1"). A nil httpClient uses a fresh http.Client.
func NewClient(httpClient *http.Client, apiKey, model, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Extract asks the model to fill schema from content and returns the JSON
// object it produced. Failures are *models.ProcessError with an LLM code.
func (c *Client) Extract(ctx context.Context, content string, schema json.RawMessage) (json.RawMessage, *Usage, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(schema)},
			{Role: "user", Content: content},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeLLMFailure, "build LLM request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeLLMFailure, "read LLM response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, classify(resp.StatusCode, respBody)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeLLMFailure, "parse LLM response", err)
	}
	if len(chat.Choices) == 0 {
		return nil, nil, models.NewProcessError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	raw := strings.TrimSpace(chat.Choices[0].Message.Content)
	if !json.Valid([]byte(raw)) || !strings.HasPrefix(raw, "{") {
		return nil, nil, models.NewProcessError(models.ErrCodeLLMFailure, "LLM returned no JSON object", nil)
	}
	usage := chat.Usage
	return json.RawMessage(raw), &usage, nil
}

func systemPrompt(schema json.RawMessage) string {
	return fmt.Sprintf(`You extract product data from web pages. Return one JSON object matching this schema:

%s

Rules:
- Return ONLY the JSON object, no markdown fences or commentary.
- Use null for any field the page does not contain.
- Copy text as it appears on the page; do not translate or summarise.`, string(schema))
}

func classify(status int, body []byte) *models.ProcessError {
	msg := "LLM API error"
	var e chatErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		msg = e.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewProcessError(models.ErrCodeLLMAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewProcessError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewProcessError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", status, msg), nil)
	}
}
