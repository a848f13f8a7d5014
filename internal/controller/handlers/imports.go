package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"debtorbatch/internal/controller/middleware"
	"debtorbatch/internal/core"
	"debtorbatch/internal/importer"
	"debtorbatch/internal/logger"
	"debtorbatch/internal/store"
	"debtorbatch/pkg/api"
)

// UploadDebtors accepts a spreadsheet and queues an import job.
// POST /imports/debtors
func (h *Handlers) UploadDebtors(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.httpError(w, http.StatusUnauthorized, CodeUnauthorized, "missing identity")
		return
	}
	if !identity.HasPermission(middleware.PermissionBatchCreate) {
		h.httpError(w, http.StatusForbidden, CodeInsufficientPermissions,
			fmt.Sprintf("permission %s required", middleware.PermissionBatchCreate))
		return
	}

	// Headroom over the file limit for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(h.cfg.MaxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.httpError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
				fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxFileSize))
			return
		}
		h.httpError(w, http.StatusBadRequest, CodeInvalidFileFormat, "malformed multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.httpError(w, http.StatusBadRequest, CodeInvalidFileFormat, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxFileSize {
		h.httpError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxFileSize))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: api.ErrorBody{
				Code:    CodeInvalidFileFormat,
				Message: fmt.Sprintf("unsupported file extension %q", ext),
				Details: map[string]interface{}{"allowed": []string{".xlsx", ".csv"}, "received": ext},
			},
		})
		return
	}

	ref, err := h.files.Save(r.Context(), file, header.Filename)
	if err != nil {
		h.log.Error("unable to store upload", "error", err)
		h.httpError(w, http.StatusInternalServerError, CodeInternal, "unable to store uploaded file")
		return
	}

	now := time.Now().UTC()
	job := &store.ImportJob{
		JobID:               uuid.New(),
		TenantID:            identity.TenantID,
		DepartmentID:        identity.DepartmentID,
		UserID:              identity.UserID,
		Status:              store.JobStatusQueued,
		FileRef:             ref,
		OriginalFileName:    header.Filename,
		OriginalContentType: header.Header.Get("Content-Type"),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := h.jobs.Create(r.Context(), job, h.cfg.JobTTL); err != nil {
		h.log.Error("unable to create job", "error", err)
		h.httpError(w, http.StatusInternalServerError, CodeInternal, "unable to create import job")
		return
	}

	h.queue.Enqueue(importer.Task{
		JobID: job.JobID,
		Auth: core.AuthContext{
			BearerToken:  identity.BearerToken,
			TenantID:     identity.TenantID.String(),
			DepartmentID: identity.DepartmentID.String(),
		},
		CorrelationID: logger.CorrelationIDFromContext(r.Context()),
	})

	logger.FromContext(r.Context(), h.log).Info("import job queued",
		"job_id", job.JobID,
		"tenant_id", job.TenantID,
		"file_name", header.Filename,
	)

	h.respondJSON(w, http.StatusAccepted, api.JobResponse{
		JobID:   job.JobID.String(),
		Status:  string(job.Status),
		Message: "import job accepted",
	})
}

// GetJobStatus reports progress for one job.
// GET /imports/jobs/{id}
func (h *Handlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.authorizedJob(w, r)
	if !ok {
		return
	}

	resp := api.JobStatusResponse{
		JobID:              job.JobID.String(),
		Status:             string(job.Status),
		ProgressPercentage: job.ProgressPercentage,
		TotalRecords:       job.TotalRecords,
		ProcessedRecords:   job.ProcessedRecords,
		FailedRecords:      job.FailedRecords,
		CreatedAt:          job.CreatedAt,
		UpdatedAt:          job.UpdatedAt,
	}
	if job.ErrorFileRef != "" {
		url := errorDownloadPath(job.JobID)
		resp.DownloadErrorLogURL = &url
	}
	if job.FailureReason != "" {
		reason := job.FailureReason
		resp.FailureReason = &reason
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetErrorLog describes the downloadable error report for a finished job.
// GET /imports/jobs/{id}/errors
func (h *Handlers) GetErrorLog(w http.ResponseWriter, r *http.Request) {
	job, ok := h.authorizedJob(w, r)
	if !ok {
		return
	}

	if !job.Status.Terminal() {
		h.httpError(w, http.StatusConflict, CodeJobNotCompleted,
			fmt.Sprintf("job is still %s", job.Status))
		return
	}
	if job.ErrorFileRef == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.respondJSON(w, http.StatusOK, api.ErrorLogResponse{
		DownloadURL: errorDownloadPath(job.JobID),
		ExpiresAt:   time.Now().UTC().Add(h.cfg.PresignedExpiry),
		RecordCount: job.FailedRecords,
	})
}

// DownloadErrorLog streams the error report workbook.
// GET /imports/jobs/{id}/errors/download
func (h *Handlers) DownloadErrorLog(w http.ResponseWriter, r *http.Request) {
	job, ok := h.authorizedJob(w, r)
	if !ok {
		return
	}

	if !job.Status.Terminal() {
		h.httpError(w, http.StatusConflict, CodeJobNotCompleted,
			fmt.Sprintf("job is still %s", job.Status))
		return
	}
	if job.ErrorFileRef == "" {
		h.httpError(w, http.StatusNotFound, CodeErrorLogNotFound, "job produced no error report")
		return
	}

	rc, err := h.files.OpenRead(r.Context(), job.ErrorFileRef)
	if err != nil {
		h.httpError(w, http.StatusNotFound, CodeErrorLogNotFound, "error report no longer available")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(job.ErrorFileRef)))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Error("error report stream interrupted", "job_id", job.JobID, "error", err)
	}
}

// DownloadSourceFile streams the originally uploaded file.
// GET /imports/jobs/{id}/file
func (h *Handlers) DownloadSourceFile(w http.ResponseWriter, r *http.Request) {
	job, ok := h.authorizedJob(w, r)
	if !ok {
		return
	}

	rc, err := h.files.OpenRead(r.Context(), job.FileRef)
	if err != nil {
		h.httpError(w, http.StatusNotFound, CodeJobNotFound, "source file no longer available")
		return
	}
	defer rc.Close()

	contentType := job.OriginalContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.OriginalFileName))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Error("source file stream interrupted", "job_id", job.JobID, "error", err)
	}
}

// authorizedJob loads the job from the path id and enforces read permission
// and tenant isolation. It writes the error response itself on failure.
func (h *Handlers) authorizedJob(w http.ResponseWriter, r *http.Request) (*store.ImportJob, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.httpError(w, http.StatusUnauthorized, CodeUnauthorized, "missing identity")
		return nil, false
	}
	if !identity.HasPermission(middleware.PermissionBatchRead) {
		h.httpError(w, http.StatusForbidden, CodeInsufficientPermissions,
			fmt.Sprintf("permission %s required", middleware.PermissionBatchRead))
		return nil, false
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, http.StatusNotFound, CodeJobNotFound, "no such import job")
		return nil, false
	}

	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			h.httpError(w, http.StatusNotFound, CodeJobNotFound, "no such import job")
			return nil, false
		}
		h.log.Error("unable to load job", "job_id", jobID, "error", err)
		h.httpError(w, http.StatusInternalServerError, CodeInternal, "unable to load import job")
		return nil, false
	}

	if job.TenantID != identity.TenantID {
		h.httpError(w, http.StatusForbidden, CodeTenantMismatch, "job belongs to another tenant")
		return nil, false
	}
	return job, true
}

func errorDownloadPath(jobID uuid.UUID) string {
	return fmt.Sprintf("/imports/jobs/%s/errors/download", jobID)
}
