package entities

import (
	"context"
	"unicode/utf8"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/shared/metrics"
	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/shared/util"
)

// DefaultMaxChars bounds the text handed to a backend.
const DefaultMaxChars = 15000

// Backend turns article text into entity/label pairs.
type Backend interface {
	Name() string
	Entities(ctx context.Context, text string) ([]analyses.Entity, error)
}

// ExtractionError wraps a backend call or response decoding failure.
type ExtractionError struct {
	Backend string
	Err     error
}

func (e ExtractionError) Error() string {
	if e.Err == nil {
		return "extract entities (" + e.Backend + ")"
	}
	return "extract entities (" + e.Backend + "): " + e.Err.Error()
}

func (e ExtractionError) Unwrap() error { return e.Err }

// Extractor truncates text and delegates to a Backend. It never fails: backend trouble yields
// an empty list.
type Extractor struct {
	backend  Backend
	maxChars int
}

// NewExtractor builds an Extractor; maxChars <= 0 selects DefaultMaxChars.
func NewExtractor(backend Backend, maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{backend: backend, maxChars: maxChars}
}

// Extract returns the entities found in text in backend order.
func (e *Extractor) Extract(ctx context.Context, text string) []analyses.Entity {
	if text == "" || e.backend == nil {
		return []analyses.Entity{}
	}

	found, err := e.backend.Entities(ctx, Truncate(text, e.maxChars))
	if err != nil {
		telemetry.Warn("entities.extraction_degraded", map[string]any{
			"backend": e.backend.Name(),
			"error":   util.SanitizeError(err),
		})
		metrics.IncExtractionDegraded()
		return []analyses.Entity{}
	}
	if found == nil {
		return []analyses.Entity{}
	}
	return found
}

// Truncate returns at most max characters of text.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
