package analyses

import "time"

// Status is the terminal outcome stored on a record.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Entity is one named mention extracted from an article.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Record is the durable outcome of processing one job request. Records are append-only.
type Record struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	RequesterEmail string    `json:"requesterEmail"`
	Status         Status    `json:"status"`
	Entities       []Entity  `json:"entities"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Valid reports whether status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailure
}
