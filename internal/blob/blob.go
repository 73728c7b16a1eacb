// Package blob abstracts the object store that holds uploaded images.
// Three drivers are provided: s3 (production), fs (local development) and
// memory (tests).
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete storage backend.
type Driver string

const (
	// DriverFilesystem stores objects under a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 targets an S3-compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps objects in process memory.
	DriverMemory Driver = "memory"
)

// ErrNotFound is returned by Get for an unknown key.
var ErrNotFound = errors.New("blob not found")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
}

// Info describes a stored object.
type Info struct {
	Key         string
	Size        int64
	ContentType string
	UploadedAt  time.Time
}

// Store is the object-store boundary. Keys are opaque strings chosen by
// the caller. Put overwrites an existing key, so the migration upload
// stage can be re-run.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Info, error)
	Driver() Driver
}

// Options selects and configures a driver for Open.
type Options struct {
	Driver Driver
	FSRoot string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
}

// Open constructs the Store named by opts.Driver (default fs).
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown blob driver " + string(driver))
	}
}
