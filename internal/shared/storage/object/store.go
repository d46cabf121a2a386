package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves blobs by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
