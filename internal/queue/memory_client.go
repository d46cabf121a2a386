package queue

import (
	"context"
	"errors"
	"sync"

	"fraud-digest-backend/internal/shared/telemetry"
)

const (
	memoryBuffer        = 64
	memoryMaxDeliveries = 3
)

// ErrClosed is returned by Send after the consumer has been stopped.
var ErrClosed = errors.New("queue closed")

// Handler processes one encoded message body. A non-nil error leaves the message for redelivery.
type Handler func(ctx context.Context, body string) error

// MemoryClient is an in-process queue for dev. Once Consume is called, sent messages are
// encoded and handed to the handler on a single worker goroutine; before that they are only
// recorded.
type MemoryClient struct {
	mu      sync.Mutex
	sent    []Message
	jobs    chan []byte
	stopped chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

// Send delivers msg to the consumer, or records it when none is attached.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	jobs, stopped := m.jobs, m.stopped
	if jobs == nil {
		m.sent = append(m.sent, msg)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	body, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	select {
	case <-stopped:
		return ErrClosed
	default:
	}
	select {
	case jobs <- body:
		return nil
	case <-stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sent returns a copy of the messages recorded before a consumer was attached.
func (m *MemoryClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Consume starts the worker goroutine. A message whose handler fails is retried up to three
// deliveries in total, then dropped with a warning. Calling Consume again is a no-op.
func (m *MemoryClient) Consume(ctx context.Context, handle Handler) {
	m.mu.Lock()
	if m.jobs != nil {
		m.mu.Unlock()
		return
	}
	m.jobs = make(chan []byte, memoryBuffer)
	m.stopped = make(chan struct{})
	jobs, stopped := m.jobs, m.stopped
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-stopped:
				return
			case <-ctx.Done():
				return
			case body := <-jobs:
				deliver(ctx, handle, string(body))
			}
		}
	}()
}

// Close stops the worker after its current message. Queued messages are dropped.
func (m *MemoryClient) Close() {
	m.mu.Lock()
	stopped, jobs := m.stopped, m.jobs
	m.mu.Unlock()
	if stopped == nil {
		return
	}
	m.stop.Do(func() { close(stopped) })
	m.wg.Wait()
	if n := len(jobs); n > 0 {
		telemetry.Warn("queue.memory_dropped", map[string]any{"count": n})
	}
}

func deliver(ctx context.Context, handle Handler, body string) {
	var err error
	for attempt := 1; attempt <= memoryMaxDeliveries; attempt++ {
		if err = handle(ctx, body); err == nil {
			return
		}
		telemetry.Warn("queue.memory_redelivery", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	telemetry.Error("queue.memory_gave_up", map[string]any{
		"deliveries": memoryMaxDeliveries,
		"error":      err.Error(),
	})
}

var _ Client = (*MemoryClient)(nil)
