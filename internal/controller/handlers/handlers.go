// Package handlers contains HTTP handlers for the import API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"debtorbatch/internal/importer"
	"debtorbatch/internal/storage"
	"debtorbatch/internal/store"
	"debtorbatch/pkg/api"
)

// Error codes returned in the standard error envelope.
const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInvalidFileFormat       = "INVALID_FILE_FORMAT"
	CodeFileTooLarge            = "FILE_TOO_LARGE"
	CodeJobNotFound             = "JOB_NOT_FOUND"
	CodeTenantMismatch          = "TENANT_MISMATCH"
	CodeJobNotCompleted         = "JOB_NOT_COMPLETED"
	CodeErrorLogNotFound        = "ERROR_LOG_NOT_FOUND"
	CodeInternal                = "INTERNAL_ERROR"
)

// Config holds the handler-level limits.
type Config struct {
	MaxFileSize     int64 // bytes
	JobTTL          time.Duration
	PresignedExpiry time.Duration
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	jobs  store.JobStore
	files storage.FileStorage
	queue *importer.Queue
	cfg   Config
	log   *slog.Logger
}

// New creates a new Handlers instance.
func New(jobs store.JobStore, files storage.FileStorage, queue *importer.Queue, cfg Config, log *slog.Logger) *Handlers {
	return &Handlers{jobs: jobs, files: files, queue: queue, cfg: cfg, log: log}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error envelopes.
func (h *Handlers) httpError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, api.ErrorResponse{
		Error: api.ErrorBody{Code: code, Message: message},
	})
}
