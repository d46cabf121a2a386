package analyses

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// StoreError wraps a persistence failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	if e.Err == nil {
		return "store " + e.Op
	}
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e StoreError) Unwrap() error { return e.Err }

func validate(record Record) error {
	if record.ID == "" || record.URL == "" || record.RequesterEmail == "" || !record.Status.Valid() {
		return ErrInvalidRecord
	}
	return nil
}

// preferred reports whether candidate should replace current as the dedup answer.
func preferred(candidate, current Record) bool {
	if candidate.Status != current.Status {
		return candidate.Status == StatusSuccess
	}
	return candidate.CreatedAt.After(current.CreatedAt)
}
