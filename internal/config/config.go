// Package config loads and validates the engine configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Jombinoy/DOC/internal/catalog"
	"github.com/Jombinoy/DOC/internal/logging"
	"github.com/Jombinoy/DOC/internal/metrics"
	"github.com/Jombinoy/DOC/internal/storage"
)

// Config is the full engine configuration, validated once at startup.
type Config struct {
	Storage  storage.Config `yaml:"storage"`
	Transfer TransferConfig `yaml:"transfer"`
	Report   ReportConfig   `yaml:"report"`
	Catalog  catalog.Config `yaml:"catalog"`
	Metrics  metrics.Config `yaml:"metrics"`
	Log      logging.Config `yaml:"log"`
}

// TransferConfig configures the batch coordinator.
type TransferConfig struct {
	// Concurrency is the hard cap on simultaneous transfers.
	Concurrency int `yaml:"concurrency"`
}

// ReportConfig configures report persistence.
type ReportConfig struct {
	Prefix   string `yaml:"prefix"`
	Compress bool   `yaml:"compress"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Storage: storage.Config{
			Backend:  "local",
			LocalDir: "./data",
		},
		Transfer: TransferConfig{
			Concurrency: 5,
		},
		Report: ReportConfig{
			Prefix: "reports/",
		},
		Log: logging.Config{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment overrides, in that order. A .env file in the working
// directory is loaded first when present.
func Load(path string) (Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.LocalDir, "LOCAL_DIR")
	setString(&cfg.Storage.GCSBucket, "GCS_BUCKET")
	setString(&cfg.Storage.S3Bucket, "S3_BUCKET")
	setString(&cfg.Storage.S3Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.S3Region, "S3_REGION")
	setString(&cfg.Storage.Prefix, "STORAGE_PREFIX")

	setInt(&cfg.Transfer.Concurrency, "CONCURRENCY")

	setString(&cfg.Report.Prefix, "REPORT_PREFIX")
	setBool(&cfg.Report.Compress, "REPORT_COMPRESS")

	setString(&cfg.Catalog.PostgresDSN, "CATALOG_DSN")
	setString(&cfg.Catalog.Namespace, "CATALOG_NAMESPACE")

	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	setString(&cfg.Metrics.Address, "METRICS_ADDRESS")

	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
}

// Validate checks the configuration. It runs once at startup; a failure
// here is fatal before any transfer is attempted.
func (c Config) Validate() error {
	if c.Transfer.Concurrency <= 0 {
		return fmt.Errorf("transfer.concurrency must be positive, got %d", c.Transfer.Concurrency)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir required for local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket required for gcs backend")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket required for s3 backend")
		}
	case "mem":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}
