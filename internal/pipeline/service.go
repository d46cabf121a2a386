package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/notify"
	"fraud-digest-backend/internal/shared/metrics"
	"fraud-digest-backend/internal/shared/storage/object"
	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/shared/util"
)

const (
	defaultStoreTimeout  = 10 * time.Second
	defaultNotifyTimeout = 30 * time.Second
	emptyArticleMessage  = "no article text found at the submitted URL"
)

// Job is one parsed request: analyze URL and tell Email.
type Job struct {
	URL       string
	Email     string
	RequestID string
}

// Outcome summarises how a job ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeFailureRecord Outcome = "failure_recorded"
	OutcomeAborted       Outcome = "aborted"
)

// Result describes a finished run.
type Result struct {
	State    State
	Outcome  Outcome
	RecordID string
	Entities int
	Notified bool
}

// Fetcher returns the paragraph text of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor returns entities for text. It does not fail.
type Extractor interface {
	Extract(ctx context.Context, text string) []analyses.Entity
}

// Options tunes the Service.
type Options struct {
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
	// RetryFailedURLs lets a URL whose only records are FAILURE be processed again.
	RetryFailedURLs bool
}

// Service coordinates fetch, extraction, persistence and notification for one job at a time.
type Service struct {
	Repo      analyses.Repo
	Fetcher   Fetcher
	Extractor Extractor
	Notifier  notify.Notifier

	// Archive is optional; fetched text is written there best-effort.
	Archive object.ObjectStore

	Options Options

	Now   func() time.Time
	NewID func() string
}

// Process runs job from PARSED to DONE or ABORTED. It returns an error only when the SUCCESS
// record could not be stored; that error is a StoreWriteError.
func (s *Service) Process(ctx context.Context, job Job) (Result, error) {
	started := s.now()
	metrics.IncJobsReceived()
	defer func() {
		metrics.ObserveJobDurationMs(float64(s.now().Sub(started).Milliseconds()))
	}()

	if s.isDuplicate(ctx, job) {
		LogTransition(StateDedupChecked, StateDone, job, map[string]any{"reason": "duplicate"})
		metrics.IncJobsDuplicate()
		return Result{State: StateDone, Outcome: OutcomeDuplicate}, nil
	}

	text, err := s.Fetcher.Fetch(ctx, job.URL)
	if err != nil {
		return s.recordFailure(ctx, job, "fetch failed: "+util.SanitizeError(err)), nil
	}
	if strings.TrimSpace(text) == "" {
		return s.recordFailure(ctx, job, emptyArticleMessage), nil
	}
	LogTransition(StateDedupChecked, StateFetched, job, map[string]any{"text_len": len(text)})
	s.archive(ctx, job, text)

	found := s.Extractor.Extract(ctx, text)
	LogTransition(StateFetched, StateExtracted, job, map[string]any{"entities": len(found)})

	rec := s.newRecord(job, analyses.StatusSuccess, found, "")
	recordID, err := s.save(ctx, rec)
	if err != nil {
		LogTransition(StateExtracted, StateAborted, job, map[string]any{"error": util.SanitizeError(err)})
		metrics.IncJobsAborted()
		return Result{State: StateAborted, Outcome: OutcomeAborted, Entities: len(found)}, StoreWriteError{URL: job.URL, Err: err}
	}
	LogTransition(StateExtracted, StateStored, job, map[string]any{"record_id": recordID})

	notified := false
	if subject, body, err := notify.RenderSuccess(job.URL, found); err != nil {
		s.logNotifyFailure(job, err)
	} else {
		notified = s.send(ctx, job, subject, body)
	}
	if notified {
		LogTransition(StateStored, StateNotified, job, nil)
		LogTransition(StateNotified, StateDone, job, nil)
	} else {
		LogTransition(StateStored, StateDone, job, map[string]any{"notified": false})
	}

	metrics.IncJobsCompleted()
	return Result{State: StateDone, Outcome: OutcomeSuccess, RecordID: recordID, Entities: len(found), Notified: notified}, nil
}

// isDuplicate runs the dedup check and logs PARSED -> DEDUP_CHECKED. Lookup errors count as
// "no duplicate".
func (s *Service) isDuplicate(ctx context.Context, job Job) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()

	rec, err := s.Repo.FindByURL(lookupCtx, job.URL)
	switch {
	case err == nil:
	case errors.Is(err, analyses.ErrNotFound):
		LogTransition(StateParsed, StateDedupChecked, job, map[string]any{"duplicate": false})
		return false
	default:
		telemetry.Warn("pipeline.dedup_lookup_failed", map[string]any{
			"url":        job.URL,
			"request_id": job.RequestID,
			"error":      util.SanitizeError(analyses.StoreError{Op: "find", Err: err}),
		})
		LogTransition(StateParsed, StateDedupChecked, job, map[string]any{"duplicate": false, "lookup_failed": true})
		return false
	}

	duplicate := rec.Status == analyses.StatusSuccess || !s.Options.RetryFailedURLs
	LogTransition(StateParsed, StateDedupChecked, job, map[string]any{
		"duplicate":       duplicate,
		"existing_id":     rec.ID,
		"existing_status": string(rec.Status),
	})
	return duplicate
}

// recordFailure persists a FAILURE record and notifies the requester. A failed write is logged
// and the requester is still told.
func (s *Service) recordFailure(ctx context.Context, job Job, reason string) Result {
	rec := s.newRecord(job, analyses.StatusFailure, nil, reason)
	recordID, err := s.save(ctx, rec)
	if err != nil {
		telemetry.Error("pipeline.failure_record_not_saved", map[string]any{
			"url":        job.URL,
			"request_id": job.RequestID,
			"reason":     reason,
			"error":      util.SanitizeError(err),
		})
	}
	LogTransition(StateDedupChecked, StateFailedRecorded, job, map[string]any{
		"reason":    reason,
		"record_id": recordID,
	})

	notified := false
	if subject, body, err := notify.RenderFailure(job.URL); err != nil {
		s.logNotifyFailure(job, err)
	} else {
		notified = s.send(ctx, job, subject, body)
	}
	LogTransition(StateFailedRecorded, StateDone, job, map[string]any{"notified": notified})

	metrics.IncJobsFailedRecorded()
	return Result{State: StateDone, Outcome: OutcomeFailureRecord, RecordID: recordID, Notified: notified}
}

func (s *Service) save(ctx context.Context, rec analyses.Record) (string, error) {
	saveCtx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()
	id, err := s.Repo.Save(saveCtx, rec)
	if err != nil {
		return "", analyses.StoreError{Op: "save", Err: err}
	}
	return id, nil
}

func (s *Service) send(ctx context.Context, job Job, subject, body string) bool {
	if s.Notifier == nil {
		return false
	}
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout())
	defer cancel()
	if err := s.Notifier.Notify(notifyCtx, job.Email, subject, body); err != nil {
		s.logNotifyFailure(job, err)
		return false
	}
	return true
}

func (s *Service) logNotifyFailure(job Job, err error) {
	telemetry.Error("pipeline.notify_failed", map[string]any{
		"url":        job.URL,
		"request_id": job.RequestID,
		"error":      util.SanitizeError(err),
	})
	metrics.IncNotifyFailed()
}

func (s *Service) archive(ctx context.Context, job Job, text string) {
	if s.Archive == nil {
		return
	}
	key := "articles/" + util.HashKey(job.URL) + ".txt"
	archiveCtx, cancel := context.WithTimeout(ctx, s.storeTimeout())
	defer cancel()
	if _, err := s.Archive.Put(archiveCtx, key, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		telemetry.Warn("pipeline.archive_failed", map[string]any{
			"url":   job.URL,
			"key":   key,
			"error": util.SanitizeError(err),
		})
	}
}

func (s *Service) newRecord(job Job, status analyses.Status, found []analyses.Entity, message string) analyses.Record {
	if found == nil {
		found = []analyses.Entity{}
	}
	return analyses.Record{
		ID:             s.newID(),
		URL:            job.URL,
		RequesterEmail: job.Email,
		Status:         status,
		Entities:       found,
		ErrorMessage:   message,
		RequestID:      job.RequestID,
		CreatedAt:      s.now().UTC(),
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) storeTimeout() time.Duration {
	if s.Options.StoreTimeout > 0 {
		return s.Options.StoreTimeout
	}
	return defaultStoreTimeout
}

func (s *Service) notifyTimeout() time.Duration {
	if s.Options.NotifyTimeout > 0 {
		return s.Options.NotifyTimeout
	}
	return defaultNotifyTimeout
}
