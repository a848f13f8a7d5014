package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned when a job id does not exist or has expired.
var ErrJobNotFound = errors.New("import job not found")

// JobStore persists import jobs keyed by job id with a per-key TTL.
// Get returns a snapshot; concurrent readers never observe a partial write.
type JobStore interface {
	// Create persists a new job with the given TTL.
	Create(ctx context.Context, job *ImportJob, ttl time.Duration) error

	// Get returns the job by id, or ErrJobNotFound.
	Get(ctx context.Context, jobID uuid.UUID) (*ImportJob, error)

	// Update overwrites the stored job and refreshes its TTL.
	Update(ctx context.Context, job *ImportJob, ttl time.Duration) error
}
