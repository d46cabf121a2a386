package notify

import (
	"context"

	"fraud-digest-backend/internal/shared/telemetry"
)

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return NotifyError{To: to, Err: err}
	}
	telemetry.Info("notify.logged", map[string]any{
		"to":       to,
		"subject":  subject,
		"body_len": len(htmlBody),
	})
	return nil
}

var _ Notifier = LogNotifier{}
