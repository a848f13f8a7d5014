// Package redis implements the job store on Redis. Jobs are stored as JSON
// values under "import-job:<id>" with the TTL applied per key, matching the
// in-memory store's semantics so the two are interchangeable.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"debtorbatch/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed job store.
type Store struct {
	client *redis.Client
}

// New creates a store using the given Redis address (host:port).
func New(addr string) *Store {
	return &Store{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(jobID uuid.UUID) string {
	return fmt.Sprintf("import-job:%s", jobID)
}

// Create persists a new job with the given TTL.
func (s *Store) Create(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	return s.set(ctx, job, ttl)
}

// Update overwrites the stored job and refreshes its TTL.
func (s *Store) Update(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	return s.set(ctx, job, ttl)
}

// Get returns the job by id, or store.ErrJobNotFound.
func (s *Store) Get(ctx context.Context, jobID uuid.UUID) (*store.ImportJob, error) {
	raw, err := s.client.Get(ctx, key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", jobID, err)
	}

	var job store.ImportJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

func (s *Store) set(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := s.client.Set(ctx, key(job.JobID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", job.JobID, err)
	}
	return nil
}
