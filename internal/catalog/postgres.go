package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// PostgresWriter implements Writer using PostgreSQL.
type PostgresWriter struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewPostgresWriter creates a new PostgreSQL catalog writer.
func NewPostgresWriter(cfg Config) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	w := &PostgresWriter{pool: pool, cfg: cfg}

	if err := w.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return w, nil
}

// initSchema creates the catalog tables if they don't exist.
func (w *PostgresWriter) initSchema(ctx context.Context) error {
	_, err := w.pool.Exec(ctx, schemaSQL)
	return err
}

// RecordBatch inserts one batch record.
func (w *PostgresWriter) RecordBatch(ctx context.Context, rec BatchRecord) error {
	const q = `
		INSERT INTO transfer_batches
			(batch_id, namespace, started_at, ended_at, total_files,
			 succeeded, failed, success_rate, report_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := w.pool.Exec(ctx, q,
		rec.BatchID,
		w.cfg.Namespace,
		rec.StartedAt,
		rec.EndedAt,
		rec.TotalFiles,
		rec.Succeeded,
		rec.Failed,
		rec.SuccessRate,
		rec.ReportURI,
	)
	if err != nil {
		return fmt.Errorf("insert batch record: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() {
	w.pool.Close()
}

var _ Writer = (*PostgresWriter)(nil)
