package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"debtorbatch/internal/store"

	"github.com/google/uuid"
)

// Create inserts a new import job row.
func (s *Store) Create(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	query := `
		INSERT INTO import_jobs (
			job_id, tenant_id, department_id, user_id, status,
			file_ref, original_file_name, original_content_type,
			total_records, processed_records, failed_records, progress_percentage,
			error_file_ref, failure_reason, created_at, updated_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.JobID,
		job.TenantID,
		job.DepartmentID,
		job.UserID,
		job.Status,
		job.FileRef,
		job.OriginalFileName,
		job.OriginalContentType,
		job.TotalRecords,
		job.ProcessedRecords,
		job.FailedRecords,
		job.ProgressPercentage,
		job.ErrorFileRef,
		job.FailureReason,
		job.CreatedAt,
		job.UpdatedAt,
		time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.JobID, err)
	}
	return nil
}

// Update overwrites the mutable fields of a stored job and refreshes its TTL.
func (s *Store) Update(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	query := `
		UPDATE import_jobs SET
			status = $2,
			total_records = $3,
			processed_records = $4,
			failed_records = $5,
			progress_percentage = $6,
			error_file_ref = $7,
			failure_reason = $8,
			updated_at = $9,
			expires_at = $10
		WHERE job_id = $1
	`

	res, err := s.db.ExecContext(ctx, query,
		job.JobID,
		job.Status,
		job.TotalRecords,
		job.ProcessedRecords,
		job.FailedRecords,
		job.ProgressPercentage,
		job.ErrorFileRef,
		job.FailureReason,
		job.UpdatedAt,
		time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.JobID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrJobNotFound
	}
	return nil
}

// Get returns the job by id, or store.ErrJobNotFound. Expired rows are
// treated as missing even before the reaper removes them.
func (s *Store) Get(ctx context.Context, jobID uuid.UUID) (*store.ImportJob, error) {
	query := `
		SELECT job_id, tenant_id, department_id, user_id, status,
		       file_ref, original_file_name, original_content_type,
		       total_records, processed_records, failed_records, progress_percentage,
		       error_file_ref, failure_reason, created_at, updated_at
		FROM import_jobs
		WHERE job_id = $1 AND expires_at >= now()
	`

	var job store.ImportJob
	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.JobID,
		&job.TenantID,
		&job.DepartmentID,
		&job.UserID,
		&job.Status,
		&job.FileRef,
		&job.OriginalFileName,
		&job.OriginalContentType,
		&job.TotalRecords,
		&job.ProcessedRecords,
		&job.FailedRecords,
		&job.ProgressPercentage,
		&job.ErrorFileRef,
		&job.FailureReason,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job %s: %w", jobID, err)
	}

	return &job, nil
}
