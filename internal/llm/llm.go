package llm

import (
	"context"
	"errors"
)

// Completer sends one prompt to a generative model and returns its raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotImplemented
}
