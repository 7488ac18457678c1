// Package catalog records batch history in an external catalog.
package catalog

import (
	"context"
	"time"
)

// Config configures the catalog.
type Config struct {
	// PostgresDSN enables the Postgres catalog when set.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Namespace groups batches from different deployments.
	Namespace string `yaml:"namespace"`
}

// BatchRecord is one completed batch run.
type BatchRecord struct {
	BatchID     string
	StartedAt   time.Time
	EndedAt     time.Time
	TotalFiles  int
	Succeeded   int
	Failed      int
	SuccessRate float64
	ReportURI   string
}

// Writer persists batch records. The catalog is append-only history;
// it never gates a transfer.
type Writer interface {
	RecordBatch(ctx context.Context, rec BatchRecord) error
	Close()
}

// NewWriter creates a catalog writer based on configuration.
// An empty DSN yields a no-op writer.
func NewWriter(cfg Config) (Writer, error) {
	if cfg.PostgresDSN == "" {
		return noopWriter{}, nil
	}
	return NewPostgresWriter(cfg)
}

type noopWriter struct{}

func (noopWriter) RecordBatch(context.Context, BatchRecord) error { return nil }
func (noopWriter) Close()                                         {}
