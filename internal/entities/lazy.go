package entities

import (
	"context"
	"sync"

	"fraud-digest-backend/internal/analyses"
)

// LazyBackend builds its backend on first use and keeps it for the life of the process. A failed
// build is retried on the next call.
type LazyBackend struct {
	name  string
	build func(ctx context.Context) (Backend, error)

	mu      sync.Mutex
	backend Backend
}

// NewLazyBackend returns a backend that calls build once it is first needed.
func NewLazyBackend(name string, build func(ctx context.Context) (Backend, error)) *LazyBackend {
	return &LazyBackend{name: name, build: build}
}

func (l *LazyBackend) Name() string { return l.name }

func (l *LazyBackend) Entities(ctx context.Context, text string) ([]analyses.Entity, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, ExtractionError{Backend: l.name, Err: err}
	}
	return b.Entities(ctx, text)
}

func (l *LazyBackend) get(ctx context.Context) (Backend, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend != nil {
		return l.backend, nil
	}
	b, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.backend = b
	return b, nil
}

var _ Backend = (*LazyBackend)(nil)
