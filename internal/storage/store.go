// Package storage abstracts the destination object store for transfers.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Writer streams one object into the store. Close commits the object;
// Abort discards everything written so far. A writer must end in exactly
// one of the two.
type Writer interface {
	io.Writer

	// Close commits the object. It is not visible until Close returns nil.
	Close() error

	// Abort discards the pending write. Nothing appears at the key.
	Abort() error
}

// Store is a durable blob destination shared read-only across workers.
// Each worker opens its own writer to a distinct key; an existing object
// at the same key is overwritten (last write wins).
type Store interface {
	// NewWriter opens a streaming writer for the object at key.
	NewWriter(ctx context.Context, key string) (Writer, error)

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// IsAccessible probes the backend. A failed probe at startup is
	// fatal: no transfer is attempted against an unreachable store.
	IsAccessible(ctx context.Context) error

	// URI returns the canonical URI for the given key.
	// For local: file:///path, GCS: gs://bucket/path, S3: s3://bucket/path
	URI(key string) string

	// Close releases any resources.
	Close() error
}

// Config configures the storage backend.
type Config struct {
	Backend string `yaml:"backend"` // "local" | "gcs" | "s3" | "mem"

	// Local filesystem
	LocalDir string `yaml:"local_dir"`

	// GCS
	GCSBucket string `yaml:"gcs_bucket"`

	// S3 (also works for B2, R2, MinIO)
	S3Bucket   string `yaml:"s3_bucket"`
	S3Endpoint string `yaml:"s3_endpoint"`
	S3Region   string `yaml:"s3_region"`

	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`
}

// NewStore creates a storage backend based on configuration.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("local_dir required for local backend")
		}
		return NewLocalStore(cfg.LocalDir, cfg.Prefix)
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("gcs_bucket required for gcs backend")
		}
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.Prefix)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3_bucket required for s3 backend")
		}
		return NewS3Store(ctx, cfg.S3Bucket, cfg.Prefix, cfg.S3Endpoint, cfg.S3Region)
	case "mem":
		return NewMemStore(cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
