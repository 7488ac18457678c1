package report

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/gzip"

	"github.com/Jombinoy/DOC/internal/storage"
)

// PersistOptions configures report persistence.
type PersistOptions struct {
	// Prefix is the key prefix within the store. Default "reports/".
	Prefix string

	// Compress gzips the serialized report.
	Compress bool
}

// Key returns the timestamp-derived object key for a report.
func Key(r *BatchReport, opts PersistOptions) string {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "reports/"
	}

	key := fmt.Sprintf("%stransfer_report_%s.json", prefix, r.EndTime.Format("20060102_150405"))
	if opts.Compress {
		key += ".gz"
	}
	return key
}

// Persist serializes the report to the store and returns its location.
// A persist failure does not invalidate the batch outcome already
// computed; callers report it and move on.
func Persist(ctx context.Context, store storage.Store, r *BatchReport, opts PersistOptions) (string, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	key := Key(r, opts)

	w, err := store.NewWriter(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open report writer: %w", err)
	}

	if opts.Compress {
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(data); err != nil {
			gz.Close()
			w.Abort()
			return "", fmt.Errorf("write report: %w", err)
		}
		if err := gz.Close(); err != nil {
			w.Abort()
			return "", fmt.Errorf("compress report: %w", err)
		}
	} else {
		if _, err := w.Write(data); err != nil {
			w.Abort()
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize report: %w", err)
	}

	return store.URI(key), nil
}
