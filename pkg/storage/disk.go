// Package storage provides a small filesystem abstraction for generated
// artifacts such as order exports.
//
// Two drivers are available:
//   - "local"  local filesystem (default)
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2)
//
//	storage.Connect(ctx)
//	disk := storage.Default()
//	disk.Put(ctx, "exports/orders.csv", r)
//	files, _ := disk.Files(ctx, "exports")
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a path does not exist on the disk.
var ErrNotFound = errors.New("storage: file not found")

// File describes one stored object.
type File struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes r to path, creating parent directories as needed.
	Put(ctx context.Context, path string, r io.Reader) error

	// Get returns a ReadCloser for path. Caller must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes path. Returns nil if it did not exist.
	Delete(ctx context.Context, path string) error

	// Files lists the files directly inside directory, newest first.
	Files(ctx context.Context, directory string) ([]File, error)

	// URL returns the public URL for path.
	URL(path string) string
}
