// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the import API.
package api

import "time"

// JobResponse is the response body returned after accepting an upload.
type JobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse is the response body for job status queries.
type JobStatusResponse struct {
	JobID               string    `json:"job_id"`
	Status              string    `json:"status"`
	ProgressPercentage  int       `json:"progress_percentage"`
	TotalRecords        int       `json:"total_records"`
	ProcessedRecords    int       `json:"processed_records"`
	FailedRecords       int       `json:"failed_records"`
	DownloadErrorLogURL *string   `json:"download_error_log_url,omitempty"`
	FailureReason       *string   `json:"failure_reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ErrorLogResponse is the response body describing a downloadable error report.
type ErrorLogResponse struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	RecordCount int       `json:"record_count"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
