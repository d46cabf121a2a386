package analyses

import "context"

// Repo is the append-only result store.
//
// FindByURL returns the record the dedup check should see for url: a SUCCESS record when one
// exists, otherwise the newest record. It returns ErrNotFound when there is none.
type Repo interface {
	FindByURL(ctx context.Context, url string) (Record, error)
	Save(ctx context.Context, record Record) (string, error)
}
