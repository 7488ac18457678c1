// Package report aggregates per-item transfer outcomes into a batch
// summary and persists it.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jombinoy/DOC/internal/transfer"
)

// SuccessEntry is one successful transfer in the report.
type SuccessEntry struct {
	Status          string `json:"status"`
	SourceURL       string `json:"source_url"`
	DestinationPath string `json:"destination_path"`
	Size            int64  `json:"size"`
}

// FailureEntry is one failed transfer in the report.
type FailureEntry struct {
	Status    string `json:"status"`
	SourceURL string `json:"source_url"`
	Error     string `json:"error"`
}

// Summary holds the batch totals.
type Summary struct {
	TotalFiles          int    `json:"total_files"`
	SuccessfulTransfers int    `json:"successful_transfers"`
	FailedTransfers     int    `json:"failed_transfers"`
	SuccessRate         string `json:"success_rate"` // "NN.NN%"
}

// BatchReport is the machine-readable outcome of one batch run.
// Successes and failures keep the order results arrived in, which is
// completion order, not submission order.
type BatchReport struct {
	Successful []SuccessEntry `json:"successful"`
	Failed     []FailureEntry `json:"failed"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	TotalFiles int            `json:"total_files"`
	Summary    Summary        `json:"summary"`

	// SuccessRate is the raw fraction backing Summary.SuccessRate.
	SuccessRate float64 `json:"-"`

	// BatchID identifies the run that produced this report. Carried for
	// logging and catalog records, not serialized into the report body.
	BatchID string `json:"-"`

	// Location is where the report was persisted, set after Persist.
	Location string `json:"-"`
}

// Build partitions results into successes and failures, preserving
// arrival order, and computes the batch totals. The success rate is 0
// for an empty batch; no division happens when totalRequested is 0.
func Build(results []transfer.Result, totalRequested int, start, end time.Time) *BatchReport {
	successful := make([]SuccessEntry, 0, len(results))
	failed := make([]FailureEntry, 0)

	for _, r := range results {
		if r.IsSuccess() {
			successful = append(successful, SuccessEntry{
				Status:          string(r.Status),
				SourceURL:       r.SourceURL,
				DestinationPath: r.DestinationPath,
				Size:            r.Size,
			})
		} else {
			failed = append(failed, FailureEntry{
				Status:    string(r.Status),
				SourceURL: r.SourceURL,
				Error:     r.Error,
			})
		}
	}

	var rate float64
	if totalRequested > 0 {
		rate = float64(len(successful)) / float64(totalRequested)
	}

	return &BatchReport{
		Successful: successful,
		Failed:     failed,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		TotalFiles: totalRequested,
		Summary: Summary{
			TotalFiles:          totalRequested,
			SuccessfulTransfers: len(successful),
			FailedTransfers:     len(failed),
			SuccessRate:         FormatRate(rate),
		},
		SuccessRate: rate,
	}
}

// FormatRate renders a raw fraction as a two-decimal percentage string.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// MarshalJSON returns the report as indented JSON.
func (r *BatchReport) MarshalJSON() ([]byte, error) {
	type Alias BatchReport
	return json.MarshalIndent((*Alias)(r), "", "  ")
}

// Parse decodes a serialized report. The raw success rate is rebuilt
// from the decoded counts.
func Parse(data []byte) (*BatchReport, error) {
	var r BatchReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if r.TotalFiles > 0 {
		r.SuccessRate = float64(len(r.Successful)) / float64(r.TotalFiles)
	}
	return &r, nil
}
