package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryClientRecordsWithoutConsumer(t *testing.T) {
	q := &MemoryClient{}
	if err := q.Send(context.Background(), Message{URL: "http://x", Email: "a@b.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := q.Sent(); len(got) != 1 || got[0].URL != "http://x" {
		t.Fatalf("unexpected sent messages: %+v", got)
	}
}

func TestMemoryClientDeliversToConsumer(t *testing.T) {
	q := &MemoryClient{}
	bodies := make(chan string, 1)
	q.Consume(context.Background(), func(_ context.Context, body string) error {
		bodies <- body
		return nil
	})
	defer q.Close()

	if err := q.Send(context.Background(), Message{URL: "http://x", Email: "a@b.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case body := <-bodies:
		if body != `{"url":"http://x","email":"a@b.com"}` {
			t.Fatalf("unexpected body %s", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
	if len(q.Sent()) != 0 {
		t.Fatal("consumed messages should not be recorded")
	}
}

func TestMemoryClientRedeliversOnError(t *testing.T) {
	q := &MemoryClient{}
	var (
		mu       sync.Mutex
		attempts int
	)
	done := make(chan struct{})
	q.Consume(context.Background(), func(context.Context, string) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("store unavailable")
		}
		close(done)
		return nil
	})
	defer q.Close()

	if err := q.Send(context.Background(), Message{URL: "http://x", Email: "a@b.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not redelivered")
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Fatalf("expected 2 deliveries, got %d", attempts)
	}
}

func TestMemoryClientSendAfterClose(t *testing.T) {
	q := &MemoryClient{}
	q.Consume(context.Background(), func(context.Context, string) error { return nil })
	q.Close()

	err := q.Send(context.Background(), Message{URL: "http://x", Email: "a@b.com"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
