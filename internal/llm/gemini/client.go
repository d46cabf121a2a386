package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fraud-digest-backend/internal/llm"
	"fraud-digest-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 60 * time.Second
)

// Client implements llm.Completer using the Gemini generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Gemini client. An empty model selects gemini-1.5-flash.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     apiKey,
		model:      strings.TrimSpace(model),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		Temperature float32 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete returns the concatenated text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var reqBody generateRequest
	reqBody.Contents = []content{{Role: "user", Parts: []part{{Text: prompt}}}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("gemini request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("gemini http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Status)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("gemini http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini response missing candidates")
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":      "gemini",
		"model":         c.model,
		"finish_reason": parsed.Candidates[0].FinishReason,
	})
	return text, nil
}

var _ llm.Completer = (*Client)(nil)
