package importer

import (
	"context"
	"fmt"
	"math"
	"time"

	"debtorbatch/internal/store"
)

// Tracker writes job state transitions and progress to the job store.
type Tracker struct {
	jobs store.JobStore
	ttl  time.Duration
}

// NewTracker returns a tracker persisting with the given job TTL.
func NewTracker(jobs store.JobStore, ttl time.Duration) *Tracker {
	return &Tracker{jobs: jobs, ttl: ttl}
}

// SetStatus transitions the job and persists it.
func (t *Tracker) SetStatus(ctx context.Context, job *store.ImportJob, status store.JobStatus) error {
	job.Status = status
	job.Touch()
	if err := t.jobs.Update(ctx, job, t.ttl); err != nil {
		return fmt.Errorf("persist status %s for job %s: %w", status, job.JobID, err)
	}
	return nil
}

// RecordProgress recomputes the percentage from the job counters and
// persists it.
func (t *Tracker) RecordProgress(ctx context.Context, job *store.ImportJob) error {
	job.ProgressPercentage = ProgressPercent(job.ProcessedRecords, job.FailedRecords, job.TotalRecords)
	job.Touch()
	if err := t.jobs.Update(ctx, job, t.ttl); err != nil {
		return fmt.Errorf("persist progress for job %s: %w", job.JobID, err)
	}
	return nil
}

// Fail marks the job FAILED with the given reason and persists it.
func (t *Tracker) Fail(ctx context.Context, job *store.ImportJob, reason string) error {
	job.FailureReason = reason
	return t.SetStatus(ctx, job, store.JobStatusFailed)
}

// ProgressPercent computes completion over the known total, clamped to
// [0,100]. An unknown total reports 0 rather than guessing.
func ProgressPercent(processed, failed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(processed+failed) * 100.0 / float64(total)))
	if pct > 100 {
		return 100
	}
	return pct
}
