// Package postgres implements the job store on PostgreSQL for deployments
// that need jobs to survive a process restart. TTL semantics are preserved
// with an expires_at column and a periodic reaper.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store provides a PostgreSQL-backed job store.
type Store struct {
	db *sql.DB
}

// New opens a connection pool against the given database URL.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying pool for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReapExpired deletes jobs whose TTL has elapsed. Intended to be called
// periodically from the host process.
func (s *Store) ReapExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_jobs WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("reap expired jobs: %w", err)
	}
	return res.RowsAffected()
}
