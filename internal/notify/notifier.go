package notify

import "context"

// Notifier dispatches exactly one outbound message per call.
type Notifier interface {
	Notify(ctx context.Context, to, subject, htmlBody string) error
}

// NotifyError wraps a delivery failure for one recipient.
type NotifyError struct {
	To  string
	Err error
}

func (e NotifyError) Error() string {
	if e.Err == nil {
		return "notify " + e.To
	}
	return "notify " + e.To + ": " + e.Err.Error()
}

func (e NotifyError) Unwrap() error { return e.Err }
