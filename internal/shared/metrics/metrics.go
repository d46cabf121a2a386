package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	jobsReceivedTotal       atomic.Uint64
	jobsCompletedTotal      atomic.Uint64
	jobsDuplicateTotal      atomic.Uint64
	jobsFailedRecordedTotal atomic.Uint64
	jobsParseRejectedTotal  atomic.Uint64
	jobsAbortedTotal        atomic.Uint64
	extractionDegradedTotal atomic.Uint64
	notifyFailedTotal       atomic.Uint64
	messagesDeletedTotal    atomic.Uint64

	jobDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncJobsReceived counts inbound job messages.
func IncJobsReceived() { jobsReceivedTotal.Add(1) }

// IncJobsCompleted counts jobs that stored a SUCCESS record.
func IncJobsCompleted() { jobsCompletedTotal.Add(1) }

// IncJobsDuplicate counts jobs suppressed by the dedup check.
func IncJobsDuplicate() { jobsDuplicateTotal.Add(1) }

// IncJobsFailedRecorded counts jobs that ended with a FAILURE record.
func IncJobsFailedRecorded() { jobsFailedRecordedTotal.Add(1) }

// IncJobsParseRejected counts malformed messages dropped by the parser.
func IncJobsParseRejected() { jobsParseRejectedTotal.Add(1) }

// IncJobsAborted counts attempts left for redelivery.
func IncJobsAborted() { jobsAbortedTotal.Add(1) }

// IncExtractionDegraded counts extractor calls that fell back to an empty result.
func IncExtractionDegraded() { extractionDegradedTotal.Add(1) }

// IncNotifyFailed counts notification send failures.
func IncNotifyFailed() { notifyFailedTotal.Add(1) }

// IncMessagesDeleted counts acknowledged queue messages.
func IncMessagesDeleted() { messagesDeletedTotal.Add(1) }

// ObserveJobDurationMs records a job duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "jobs_received_total", "Total job messages received", jobsReceivedTotal.Load())
	writeCounter(&buf, "jobs_completed_total", "Total jobs stored as SUCCESS", jobsCompletedTotal.Load())
	writeCounter(&buf, "jobs_duplicate_total", "Total jobs suppressed as duplicates", jobsDuplicateTotal.Load())
	writeCounter(&buf, "jobs_failed_recorded_total", "Total jobs stored as FAILURE", jobsFailedRecordedTotal.Load())
	writeCounter(&buf, "jobs_parse_rejected_total", "Total malformed job messages", jobsParseRejectedTotal.Load())
	writeCounter(&buf, "jobs_aborted_total", "Total job attempts left for redelivery", jobsAbortedTotal.Load())
	writeCounter(&buf, "extraction_degraded_total", "Total extractions degraded to an empty result", extractionDegradedTotal.Load())
	writeCounter(&buf, "notify_failed_total", "Total notification failures", notifyFailedTotal.Load())
	writeCounter(&buf, "queue_messages_deleted_total", "Total queue messages acknowledged", messagesDeletedTotal.Load())
	writeHistogram(&buf, "job_duration_ms", "Job duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe places value in the first bucket whose bound covers it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
