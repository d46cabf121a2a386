package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrNotFound is returned when a secret id has no value.
var ErrNotFound = errors.New("secret not found")

// Resolver looks up a secret value by id.
type Resolver interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// EnvResolver reads secrets from environment variables named Prefix+id.
type EnvResolver struct {
	Prefix string
}

func (r EnvResolver) GetSecret(_ context.Context, id string) (string, error) {
	val := strings.TrimSpace(os.Getenv(r.Prefix + id))
	if val == "" {
		return "", ErrNotFound
	}
	return val, nil
}

// Cache memoizes successful lookups for the life of the process.
type Cache struct {
	next Resolver

	mu     sync.Mutex
	values map[string]string
}

// NewCache wraps next.
func NewCache(next Resolver) *Cache {
	return &Cache{next: next, values: make(map[string]string)}
}

func (c *Cache) GetSecret(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	if v, ok := c.values[id]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.next.GetSecret(ctx, id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.values[id] = v
	c.mu.Unlock()
	return v, nil
}

// Optional returns the secret or "" when it is absent.
func Optional(ctx context.Context, r Resolver, id string) (string, error) {
	v, err := r.GetSecret(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

var (
	_ Resolver = EnvResolver{}
	_ Resolver = (*Cache)(nil)
)
