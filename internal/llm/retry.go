package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/shared/util"
)

const retryBaseDelay = 300 * time.Millisecond

type retrying struct {
	base  Completer
	delay time.Duration
}

// WithRetry wraps base so a transient failure is retried once.
func WithRetry(base Completer) Completer {
	if base == nil {
		return nil
	}
	return retrying{base: base, delay: retryBaseDelay}
}

func (r retrying) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := r.base.Complete(ctx, prompt)
	if err == nil || !ShouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt": 1,
		"error":   util.SanitizeError(err),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.Complete(ctx, prompt)
}

// ShouldRetry reports whether err looks transient.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "gemini") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
