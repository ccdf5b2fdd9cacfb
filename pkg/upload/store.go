package upload

import (
	"context"
	"io"
	"time"
)

// Store is the interface for upload archive backends.
// Implementations exist for the local filesystem and S3.
type Store interface {
	// Save stores an uploaded file and returns its archive ID.
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (id string, err error)

	// Open returns a handle to an archived file. The caller must Close it.
	Open(ctx context.Context, id string) (*File, error)

	// Delete removes an archived file. It returns ErrNotFound when id is
	// unknown.
	Delete(ctx context.Context, id string) error

	// Cleanup removes archived files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}
