// Package store contains the job persistence layer for debtorbatch.
package store

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of an import job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusValidating JobStatus = "VALIDATING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Failure reasons recorded on a FAILED job.
const (
	ReasonFailFast  = "FAIL_FAST_TRIGGERED"
	ReasonCoreComm  = "CORE_COMMUNICATION_ERROR"
	ReasonUnhandled = "UNHANDLED_ERROR"
)

// ImportJob is one end-to-end processing run for a single uploaded file.
// Identity fields and CreatedAt are immutable after creation; the worker is
// the only writer while a job is running.
type ImportJob struct {
	JobID        uuid.UUID `json:"job_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	DepartmentID uuid.UUID `json:"department_id"`
	UserID       uuid.UUID `json:"user_id"`

	Status JobStatus `json:"status"`

	FileRef             string `json:"file_ref"`
	OriginalFileName    string `json:"original_file_name"`
	OriginalContentType string `json:"original_content_type"`

	TotalRecords       int `json:"total_records"`
	ProcessedRecords   int `json:"processed_records"`
	FailedRecords      int `json:"failed_records"`
	ProgressPercentage int `json:"progress_percentage"`

	ErrorFileRef  string `json:"error_file_ref,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch bumps UpdatedAt. Called on every mutation.
func (j *ImportJob) Touch() {
	j.UpdatedAt = time.Now().UTC()
}
