package pipeline

import (
	"strings"

	"fraud-digest-backend/internal/shared/telemetry"
)

// State is a step of a job's lifecycle.
type State string

const (
	StateReceived       State = "RECEIVED"
	StateParsed         State = "PARSED"
	StateDedupChecked   State = "DEDUP_CHECKED"
	StateFetched        State = "FETCHED"
	StateExtracted      State = "EXTRACTED"
	StateStored         State = "STORED"
	StateNotified       State = "NOTIFIED"
	StateDone           State = "DONE"
	StateAborted        State = "ABORTED"
	StateFailedRecorded State = "FAILED_RECORDED"
)

// LogTransition emits a pipeline.transition event.
func LogTransition(from, to State, job Job, extra map[string]any) {
	fields := map[string]any{
		"from": string(from),
		"to":   string(to),
	}
	if job.URL != "" {
		fields["url"] = job.URL
	}
	if strings.TrimSpace(job.RequestID) != "" {
		fields["request_id"] = job.RequestID
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("pipeline.transition", fields)
}
