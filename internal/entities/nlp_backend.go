package entities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"fraud-digest-backend/internal/analyses"
)

// NLPBackend calls an HTTP named-entity service that labels text directly.
type NLPBackend struct {
	client   *resty.Client
	endpoint string
}

type nlpRequest struct {
	Text string `json:"text"`
}

type nlpResponse struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
	Error string `json:"error,omitempty"`
}

// NewNLPBackend builds a client for endpoint.
func NewNLPBackend(endpoint string, timeout time.Duration) (*NLPBackend, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("NLP_ENDPOINT is required for the nlp extractor")
	}
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &NLPBackend{client: client, endpoint: endpoint}, nil
}

func (b *NLPBackend) Name() string { return "nlp" }

func (b *NLPBackend) Entities(ctx context.Context, text string) ([]analyses.Entity, error) {
	var resp nlpResponse
	httpResp, err := b.client.R().
		SetContext(ctx).
		SetBody(nlpRequest{Text: text}).
		SetResult(&resp).
		SetError(&resp).
		Post(b.endpoint)
	if err != nil {
		return nil, ExtractionError{Backend: b.Name(), Err: fmt.Errorf("call nlp service: %w", err)}
	}
	if code := httpResp.StatusCode(); code < 200 || code >= 300 {
		if resp.Error != "" {
			return nil, ExtractionError{Backend: b.Name(), Err: fmt.Errorf("nlp service error: %s", resp.Error)}
		}
		return nil, ExtractionError{Backend: b.Name(), Err: fmt.Errorf("nlp service status %d", httpResp.StatusCode())}
	}

	out := make([]analyses.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		out = append(out, analyses.Entity{Text: e.Text, Label: e.Label})
	}
	return out, nil
}

var _ Backend = (*NLPBackend)(nil)
