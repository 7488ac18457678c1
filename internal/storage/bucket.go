package storage

import (
	"context"
	"fmt"
	"net/url"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
	_ "gocloud.dev/blob/memblob" // in-memory driver, used in tests
	_ "gocloud.dev/blob/s3blob"  // S3 driver
)

// BucketStore writes objects to a gocloud.dev blob bucket.
// It backs the gcs, s3 and mem storage backends.
type BucketStore struct {
	bucket    *blob.Bucket
	uriScheme string // "gs" | "s3" | "mem"
	name      string
	prefix    string
}

// NewGCSStore creates a store backed by Google Cloud Storage.
func NewGCSStore(ctx context.Context, bucketName, prefix string) (*BucketStore, error) {
	bucket, err := blob.OpenBucket(ctx, fmt.Sprintf("gs://%s", bucketName))
	if err != nil {
		return nil, fmt.Errorf("open GCS bucket %s: %w", bucketName, err)
	}

	return &BucketStore{
		bucket:    bucket,
		uriScheme: "gs",
		name:      bucketName,
		prefix:    prefix,
	}, nil
}

// NewS3Store creates a store backed by S3-compatible storage.
// Works with AWS S3, Backblaze B2, Cloudflare R2, and MinIO.
func NewS3Store(ctx context.Context, bucketName, prefix, endpoint, region string) (*BucketStore, error) {
	bucketURL := fmt.Sprintf("s3://%s", bucketName)

	params := url.Values{}
	if region != "" {
		params.Set("region", region)
	}
	if endpoint != "" {
		params.Set("endpoint", endpoint)
		params.Set("s3ForcePathStyle", "true")
	}
	if len(params) > 0 {
		bucketURL = bucketURL + "?" + params.Encode()
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open S3 bucket %s: %w", bucketName, err)
	}

	return &BucketStore{
		bucket:    bucket,
		uriScheme: "s3",
		name:      bucketName,
		prefix:    prefix,
	}, nil
}

// NewMemStore creates an in-memory store.
func NewMemStore(prefix string) (*BucketStore, error) {
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		return nil, fmt.Errorf("open mem bucket: %w", err)
	}

	return &BucketStore{
		bucket:    bucket,
		uriScheme: "mem",
		name:      "mem",
		prefix:    prefix,
	}, nil
}

// NewWriter opens a streaming writer for the object at key.
// The bucket writer buffers and uploads as bytes arrive, so large payloads
// are never held in memory whole; the object appears on Close.
func (s *BucketStore) NewWriter(ctx context.Context, key string) (Writer, error) {
	// Writer-scoped context so Abort can cancel the pending upload
	// without touching the caller's context.
	wctx, cancel := context.WithCancel(ctx)
	w, err := s.bucket.NewWriter(wctx, s.prefix+key, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create writer for %s: %w", s.prefix+key, err)
	}
	return &bucketWriter{w: w, cancel: cancel}, nil
}

// bucketWriter commits on Close and discards on Abort by cancelling the
// context the blob writer was opened with.
type bucketWriter struct {
	w      *blob.Writer
	cancel context.CancelFunc
}

func (w *bucketWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *bucketWriter) Close() error {
	err := w.w.Close()
	w.cancel()
	return err
}

func (w *bucketWriter) Abort() error {
	// Closing with a cancelled context makes the driver drop the write.
	w.cancel()
	w.w.Close()
	return nil
}

// Exists checks if an object is present at key.
func (s *BucketStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, s.prefix+key)
}

// IsAccessible probes the bucket.
func (s *BucketStore) IsAccessible(ctx context.Context) error {
	ok, err := s.bucket.IsAccessible(ctx)
	if err != nil {
		return fmt.Errorf("probe bucket %s: %w", s.name, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s is not accessible", s.name)
	}
	return nil
}

// URI returns the canonical URI for the given key.
func (s *BucketStore) URI(key string) string {
	return fmt.Sprintf("%s://%s/%s", s.uriScheme, s.name, s.prefix+key)
}

// Close releases the bucket connection.
func (s *BucketStore) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}

var _ Store = (*BucketStore)(nil)
