// Package memory implements the job store as an in-process map with
// per-key TTL. It is the default store; the worker is the single writer per
// job, so get/set only need key-level atomicity.
package memory

import (
	"context"
	"sync"
	"time"

	"debtorbatch/internal/store"

	"github.com/google/uuid"
)

type entry struct {
	job       store.ImportJob
	expiresAt time.Time
}

// Store is a concurrent-safe in-memory job store.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entry

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

// New creates an empty store and starts a background janitor that evicts
// expired entries every sweepInterval. Pass 0 to use the default (1 minute).
func New(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	s := &Store{
		entries:     make(map[uuid.UUID]entry),
		stopJanitor: make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

// Close stops the background janitor.
func (s *Store) Close() {
	s.janitorOnce.Do(func() { close(s.stopJanitor) })
}

// Create persists a new job with the given TTL.
func (s *Store) Create(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	return s.set(job, ttl)
}

// Update overwrites the stored job and refreshes its TTL.
func (s *Store) Update(ctx context.Context, job *store.ImportJob, ttl time.Duration) error {
	return s.set(job, ttl)
}

// Get returns a copy of the job by id, or store.ErrJobNotFound.
func (s *Store) Get(ctx context.Context, jobID uuid.UUID) (*store.ImportJob, error) {
	s.mu.RLock()
	e, ok := s.entries[jobID]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, store.ErrJobNotFound
	}

	job := e.job
	return &job, nil
}

func (s *Store) set(job *store.ImportJob, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[job.JobID] = entry{job: *job, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
