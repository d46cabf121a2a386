package pipeline

// StoreWriteError reports that a SUCCESS record could not be persisted. The delivery must be
// left unacknowledged so it is redelivered.
type StoreWriteError struct {
	URL string
	Err error
}

func (e StoreWriteError) Error() string {
	if e.Err == nil {
		return "store success record for " + e.URL
	}
	return "store success record for " + e.URL + ": " + e.Err.Error()
}

func (e StoreWriteError) Unwrap() error { return e.Err }
