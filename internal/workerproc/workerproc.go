package workerproc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"fraud-digest-backend/internal/pipeline"
	"fraud-digest-backend/internal/queue"
	"fraud-digest-backend/internal/shared/metrics"
	"fraud-digest-backend/internal/shared/telemetry"
)

// Processor runs one parsed job through the pipeline.
type Processor interface {
	Process(ctx context.Context, job pipeline.Job) (pipeline.Result, error)
}

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	URL       string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process job"
	}
	return "process job: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ShouldAck reports whether the delivery that produced err is finished and can be removed from
// the queue. Malformed payloads are acknowledged; anything the processor returns is not.
func ShouldAck(err error) bool {
	if err == nil {
		return true
	}
	var parseErr ParseError
	return errors.As(err, &parseErr)
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses and processes a message payload. The returned error is classified by
// ShouldAck.
func HandleMessage(ctx context.Context, proc Processor, body string) error {
	if proc == nil {
		return errors.New("pipeline not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var (
			meta MessageMeta
			err  error
		)
		msg, meta, err = ParseMessage(body)
		if err != nil {
			telemetry.Error("worker.job.parse_failed", map[string]any{
				"body_len":    meta.BodyLen,
				"body_sha256": meta.BodySHA,
				"error":       err.Error(),
			})
			pipeline.LogTransition(pipeline.StateReceived, pipeline.StateDone, pipeline.Job{}, map[string]any{"reason": "parse_error"})
			metrics.IncJobsParseRejected()
			return err
		}
	}

	requestID := strings.TrimSpace(msg.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	job := pipeline.Job{URL: msg.URL, Email: msg.Email, RequestID: requestID}
	pipeline.LogTransition(pipeline.StateReceived, pipeline.StateParsed, job, nil)

	if _, err := proc.Process(ctx, job); err != nil {
		return ErrProcess{URL: job.URL, RequestID: job.RequestID, Err: err}
	}
	return nil
}
