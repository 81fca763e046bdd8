// Package storage reads objects from S3, MinIO or Google Cloud Storage.
//
// Only the read path is exposed. Objects are expected to be small (mail
// templates and similar assets) and are returned fully buffered.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// MaxObjectSize bounds how much of an object Get will buffer.
const MaxObjectSize = 1 << 20

var (
	// ErrObjectNotFound is returned when the bucket has no object at key.
	ErrObjectNotFound = errors.New("storage: object not found")

	// ErrObjectTooLarge is returned when an object exceeds MaxObjectSize.
	ErrObjectTooLarge = errors.New("storage: object too large")
)

// Storage fetches objects by bucket and key.
type Storage interface {
	io.Closer

	// Get returns the object body and its metadata.
	Get(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error)
	// Stat returns metadata without reading the body.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}

// readAll drains rc up to MaxObjectSize and closes it.
func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close() //nolint:errcheck // read-only body

	b, err := io.ReadAll(io.LimitReader(rc, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read body: %w", err)
	}
	if len(b) > MaxObjectSize {
		return nil, ErrObjectTooLarge
	}
	return b, nil
}
