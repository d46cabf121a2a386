package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fraud-digest-backend/internal/llm"
	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/shared/util"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// Options configures a PromptClient.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// JSONObject requests response_format json_object. Leave it off when the prompt asks for a
	// top-level array.
	JSONObject bool
	BaseURL    string
}

// PromptClient implements llm.Completer using OpenAI Chat Completions.
type PromptClient struct {
	apiKey     string
	model      string
	jsonObject bool
	endpoint   string
	httpClient *http.Client
}

// NewPromptClient constructs a prompt client.
func NewPromptClient(opts Options) (*PromptClient, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &PromptClient{
		apiKey:     opts.APIKey,
		model:      strings.TrimSpace(opts.Model),
		jsonObject: opts.JSONObject,
		endpoint:   base + "/chat/completions",
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete returns the raw model response for the prompt.
func (c *PromptClient) Complete(ctx context.Context, prompt string) (string, error) {
	temp := float32(0)
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if c.jsonObject {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if !isGPT5(c.model) {
		reqBody.Temperature = &temp
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}

	fields := map[string]any{
		"provider":    "openai",
		"model":       c.model,
		"prompt_hash": util.HashKey(prompt),
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Completer = (*PromptClient)(nil)
