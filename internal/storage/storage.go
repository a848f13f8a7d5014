// Package storage defines the file storage contract used by the import
// pipeline. The pipeline only needs "store bytes, get a reference back" and
// "open bytes for reading by reference".
package storage

import (
	"context"
	"io"
	"time"
)

// FileStorage stores uploaded source files and generated error reports.
type FileStorage interface {
	// Save stores the stream and returns an opaque reference.
	Save(ctx context.Context, r io.Reader, fileName string) (string, error)

	// OpenRead opens a previously stored file by reference.
	OpenRead(ctx context.Context, ref string) (io.ReadCloser, error)

	// SaveWithTTL stores the stream with a retention hint. Implementations
	// that cannot enforce retention themselves may rely on an external
	// cleanup process.
	SaveWithTTL(ctx context.Context, r io.Reader, fileName string, ttl time.Duration) (string, error)

	// PresignedURL returns a URL through which the file can be fetched for
	// the given duration.
	PresignedURL(ctx context.Context, ref string, expiresIn time.Duration) (string, error)
}
