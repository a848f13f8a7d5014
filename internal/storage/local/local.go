// Package local implements file storage on the local filesystem. References
// are absolute paths under the configured root directory.
package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is a local-disk file store.
type Storage struct {
	root   string
	logger *slog.Logger
}

// New creates a storage rooted at dir, creating it if needed.
func New(dir string, logger *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Storage{root: dir, logger: logger}, nil
}

// Save stores the stream and returns the file path as the reference.
func (s *Storage) Save(ctx context.Context, r io.Reader, fileName string) (string, error) {
	return s.write(r, fileName)
}

// SaveWithTTL stores the stream; retention is enforced by the cleanup loop.
func (s *Storage) SaveWithTTL(ctx context.Context, r io.Reader, fileName string, ttl time.Duration) (string, error) {
	return s.write(r, fileName)
}

// OpenRead opens a previously stored file by reference.
func (s *Storage) OpenRead(ctx context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	return f, nil
}

// PresignedURL returns the reference itself. Local files are served through
// the API's download endpoints, so there is no external URL to sign.
func (s *Storage) PresignedURL(ctx context.Context, ref string, expiresIn time.Duration) (string, error) {
	return ref, nil
}

func (s *Storage) write(r io.Reader, fileName string) (string, error) {
	safe := fmt.Sprintf("%s_%s", strings.ReplaceAll(uuid.New().String(), "-", ""), filepath.Base(fileName))
	path := filepath.Join(s.root, safe)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// RunCleanup deletes files older than retention every interval until the
// context is cancelled. A single locked file never stops the sweep.
func (s *Storage) RunCleanup(ctx context.Context, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(retention)
		}
	}
}

func (s *Storage) sweep(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	deleted := 0

	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Error("storage cleanup failed", "error", err)
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.root, e.Name())); err == nil {
				deleted++
			}
		}
	}

	if deleted > 0 {
		s.logger.Info("storage cleanup deleted files", "count", deleted)
	}
}
