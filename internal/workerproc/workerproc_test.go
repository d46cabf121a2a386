package workerproc

import (
	"context"
	"errors"
	"testing"

	"fraud-digest-backend/internal/pipeline"
	"fraud-digest-backend/internal/queue"
)

type fakeProcessor struct {
	jobs []pipeline.Job
	err  error
}

func (f *fakeProcessor) Process(ctx context.Context, job pipeline.Job) (pipeline.Result, error) {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return pipeline.Result{State: pipeline.StateAborted}, f.err
	}
	return pipeline.Result{State: pipeline.StateDone}, nil
}

func TestHandleMessageProcessesParsedJob(t *testing.T) {
	proc := &fakeProcessor{}
	err := HandleMessage(context.Background(), proc, `url: http://x, email: a@b.com`)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(proc.jobs) != 1 || proc.jobs[0].URL != "http://x" || proc.jobs[0].Email != "a@b.com" {
		t.Fatalf("unexpected jobs %+v", proc.jobs)
	}
	if proc.jobs[0].RequestID == "" {
		t.Fatalf("a request id should be assigned")
	}
	if !ShouldAck(err) {
		t.Fatalf("successful processing must be acknowledged")
	}
}

func TestHandleMessageParseErrorIsAcked(t *testing.T) {
	proc := &fakeProcessor{}
	err := HandleMessage(context.Background(), proc, "not a job at all")
	var parseErr ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if len(proc.jobs) != 0 {
		t.Fatalf("processor must not run for malformed input")
	}
	if !ShouldAck(err) {
		t.Fatalf("malformed messages must be acknowledged")
	}
}

func TestHandleMessageStoreWriteFailureIsNotAcked(t *testing.T) {
	proc := &fakeProcessor{err: pipeline.StoreWriteError{URL: "http://x", Err: errors.New("db down")}}
	err := HandleMessage(context.Background(), proc, `{"url":"http://x","email":"a@b.com","requestId":"req-1"}`)

	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.RequestID != "req-1" || procErr.URL != "http://x" {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	var writeErr pipeline.StoreWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected StoreWriteError in chain, got %v", err)
	}
	if ShouldAck(err) {
		t.Fatalf("store write failures must not be acknowledged")
	}
}

func TestHandleMessageUsesParsedMessageFromContext(t *testing.T) {
	proc := &fakeProcessor{}
	ctx := WithParsedMessage(context.Background(), queue.Message{URL: "http://ctx", Email: "c@d.com", RequestID: "req-ctx"})
	if err := HandleMessage(ctx, proc, "ignored"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if proc.jobs[0].URL != "http://ctx" || proc.jobs[0].RequestID != "req-ctx" {
		t.Fatalf("expected context message to be used, got %+v", proc.jobs[0])
	}
}

func TestHandleMessageNilProcessor(t *testing.T) {
	err := HandleMessage(context.Background(), nil, `{"url":"http://x","email":"a@b.com"}`)
	if err == nil || ShouldAck(err) {
		t.Fatalf("missing processor should be retried, got %v", err)
	}
}
