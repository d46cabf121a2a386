package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/llm"
)

var errNoArray = errors.New("no JSON array in model output")

// LLMBackend prompts a generative model for a JSON array of {entity, label} objects.
type LLMBackend struct {
	completer llm.Completer
	name      string
}

// NewLLMBackend wraps completer; name is used in logs.
func NewLLMBackend(name string, completer llm.Completer) *LLMBackend {
	return &LLMBackend{completer: completer, name: name}
}

func (b *LLMBackend) Name() string { return b.name }

func (b *LLMBackend) Entities(ctx context.Context, text string) ([]analyses.Entity, error) {
	raw, err := b.completer.Complete(ctx, llm.EntityPrompt(text))
	if err != nil {
		return nil, ExtractionError{Backend: b.name, Err: err}
	}
	found, err := ParseEntityArray(raw)
	if err != nil {
		return nil, ExtractionError{Backend: b.name, Err: err}
	}
	return found, nil
}

type rawEntity struct {
	Entity string `json:"entity"`
	Text   string `json:"text"`
	Label  string `json:"label"`
}

// ParseEntityArray decodes the span from the first '[' to the last ']' of raw, which tolerates
// commentary and code fences around the array.
func ParseEntityArray(raw string) ([]analyses.Entity, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return nil, errNoArray
	}

	var items []rawEntity
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode entity array: %w", err)
	}

	out := make([]analyses.Entity, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.Entity)
		if text == "" {
			text = strings.TrimSpace(item.Text)
		}
		if text == "" {
			continue
		}
		out = append(out, analyses.Entity{Text: text, Label: strings.TrimSpace(item.Label)})
	}
	return out, nil
}

var _ Backend = (*LLMBackend)(nil)
