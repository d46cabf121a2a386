package analyses

import (
	"context"
	"sync"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byURL map[string][]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byURL: make(map[string][]Record)}
}

// FindByURL returns the preferred record for url.
func (r *MemoryRepo) FindByURL(ctx context.Context, url string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := r.byURL[url]
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	best := records[0]
	for _, rec := range records[1:] {
		if preferred(rec, best) {
			best = rec
		}
	}
	return cloneRecord(best), nil
}

// Save appends a record.
func (r *MemoryRepo) Save(ctx context.Context, record Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validate(record); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byURL[record.URL] = append(r.byURL[record.URL], cloneRecord(record))
	return record.ID, nil
}

// Count returns the number of stored records for url with the given status.
func (r *MemoryRepo) Count(url string, status Status) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.byURL[url] {
		if rec.Status == status {
			n++
		}
	}
	return n
}

func cloneRecord(rec Record) Record {
	out := rec
	out.Entities = append([]Entity{}, rec.Entities...)
	return out
}

var _ Repo = (*MemoryRepo)(nil)
