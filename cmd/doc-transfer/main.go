package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jombinoy/DOC/internal/catalog"
	"github.com/Jombinoy/DOC/internal/config"
	"github.com/Jombinoy/DOC/internal/engine"
	"github.com/Jombinoy/DOC/internal/logging"
	"github.com/Jombinoy/DOC/internal/metrics"
	"github.com/Jombinoy/DOC/internal/report"
	"github.com/Jombinoy/DOC/internal/storage"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

var (
	flagConfig      string
	flagURLs        string
	flagConcurrency int
	flagBucket      string
	flagQuiet       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "doc-transfer",
		Short: "Bulk-transfer signed source URLs into a blob store",
		Long: `doc-transfer reads a list of time-limited signed URLs, streams each
object into the configured destination store with bounded parallelism,
and writes a machine-readable batch report.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	rootCmd.Flags().StringVarP(&flagURLs, "urls", "u", "", "path to URL list file (one signed URL per line, optional destination override after whitespace)")
	rootCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "n", 0, "max simultaneous transfers (overrides config)")
	rootCmd.Flags().StringVarP(&flagBucket, "bucket", "b", "", "destination bucket or directory (overrides config)")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress periodic progress output")
	rootCmd.MarkFlagRequired("urls")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if flagConcurrency > 0 {
		cfg.Transfer.Concurrency = flagConcurrency
	}
	if flagBucket != "" {
		switch cfg.Storage.Backend {
		case "gcs":
			cfg.Storage.GCSBucket = flagBucket
		case "s3":
			cfg.Storage.S3Bucket = flagBucket
		default:
			cfg.Storage.LocalDir = flagBucket
		}
	}

	logging.Setup(cfg.Log)
	log := logging.Component("main")
	log.Info("doc-transfer starting", "version", Version, "git_sha", GitSHA)

	if cfg.Metrics.Enabled {
		metrics.Init("doc_transfer")
		metrics.Serve(cfg.Metrics)
	}

	requests, err := loadRequests(flagURLs)
	if err != nil {
		return fmt.Errorf("load url list: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Destination must be reachable before any transfer is attempted.
	store, err := storage.NewStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	if err := store.IsAccessible(ctx); err != nil {
		return fmt.Errorf("destination store unreachable: %w", err)
	}

	opts := engine.Options{
		Concurrency: cfg.Transfer.Concurrency,
		Backend:     cfg.Storage.Backend,
	}
	if !flagQuiet {
		opts.ProgressOutput = os.Stderr
		opts.ProgressInterval = 2 * time.Second
	}

	eng := engine.New(store, opts)

	rep, runErr := eng.Run(ctx, requests)
	if runErr != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("run batch: %w", runErr)
		}
		log.Warn("batch interrupted", "error", runErr)
	}

	persistReport(ctx, store, cfg, rep, log)
	recordBatch(cfg, rep, log)

	log.Info("done",
		"total_files", rep.Summary.TotalFiles,
		"successful", rep.Summary.SuccessfulTransfers,
		"failed", rep.Summary.FailedTransfers,
		"success_rate", rep.Summary.SuccessRate,
	)
	return nil
}

func persistReport(ctx context.Context, store storage.Store, cfg config.Config, rep *report.BatchReport, log *slog.Logger) {
	// Persist with a fresh deadline: an interrupted run still gets its report.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	location, err := report.Persist(pctx, store, rep, report.PersistOptions{
		Prefix:   cfg.Report.Prefix,
		Compress: cfg.Report.Compress,
	})
	if err != nil {
		// The batch outcome stands even when the report can't be saved.
		log.Error("persist report failed", "error", err)
		if m := metrics.Get(); m != nil {
			m.ReportErrors.Inc()
		}
		return
	}
	rep.Location = location
	log.Info("report written", "location", location)
}

func recordBatch(cfg config.Config, rep *report.BatchReport, log *slog.Logger) {
	writer, err := catalog.NewWriter(cfg.Catalog)
	if err != nil {
		log.Warn("catalog unavailable, continuing without it", "error", err)
		return
	}
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writer.RecordBatch(ctx, catalog.BatchRecord{
		BatchID:     rep.BatchID,
		StartedAt:   rep.StartTime,
		EndedAt:     rep.EndTime,
		TotalFiles:  rep.Summary.TotalFiles,
		Succeeded:   rep.Summary.SuccessfulTransfers,
		Failed:      rep.Summary.FailedTransfers,
		SuccessRate: rep.SuccessRate,
		ReportURI:   rep.Location,
	})
	if err != nil {
		log.Warn("record batch in catalog failed", "error", err)
	}
}
