// Package metrics provides Prometheus metrics for the transfer engine.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the transfer engine.
type Metrics struct {
	TransfersSucceeded *prometheus.CounterVec
	TransfersFailed    *prometheus.CounterVec
	BytesCopied        *prometheus.CounterVec
	TransferDuration   *prometheus.HistogramVec

	InFlightTransfers prometheus.Gauge

	BatchesCompleted prometheus.Counter
	ReportErrors     prometheus.Counter
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // metrics HTTP server address, e.g. ":9090"
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "doc_transfer"
	}

	m := &Metrics{
		TransfersSucceeded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_succeeded_total",
				Help:      "Total number of successful transfers",
			},
			[]string{"backend"},
		),
		TransfersFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_failed_total",
				Help:      "Total number of failed transfers",
			},
			[]string{"backend"},
		),
		BytesCopied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_copied_total",
				Help:      "Total bytes copied to the destination store",
			},
			[]string{"backend"},
		),
		TransferDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Time to transfer a single object",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"backend"},
		),
		InFlightTransfers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_transfers",
				Help:      "Number of transfers currently active",
			},
		),
		BatchesCompleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_completed_total",
				Help:      "Total number of completed batches",
			},
		),
		ReportErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_errors_total",
				Help:      "Total number of report persistence failures",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics, or nil if Init was never called.
func Get() *Metrics {
	return defaultMetrics
}

// Serve starts the metrics HTTP endpoint if enabled.
// It returns immediately; the server runs until the process exits.
func Serve(cfg Config) {
	if !cfg.Enabled {
		return
	}
	addr := cfg.Address
	if addr == "" {
		addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server stopped", "address", addr, "error", err)
		}
	}()
}
