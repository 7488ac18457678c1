// Package progress tracks batch completion as a side channel.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Tracker counts completed transfers across workers.
// All counters are atomic; it is the only state shared between workers
// besides the destination store handle.
type Tracker struct {
	total     int64
	completed atomic.Int64 // success + failure
	succeeded atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
	bytes     atomic.Int64
}

// NewTracker creates a tracker for a batch of total items.
func NewTracker(total int) *Tracker {
	return &Tracker{total: int64(total)}
}

// ItemStarted marks one transfer as in flight.
func (t *Tracker) ItemStarted() {
	t.inFlight.Add(1)
}

// ItemSucceeded records one successful transfer of size bytes.
func (t *Tracker) ItemSucceeded(size int64) {
	t.bytes.Add(size)
	t.succeeded.Add(1)
	t.inFlight.Add(-1)
	t.completed.Add(1)
}

// ItemFailed records one failed transfer.
func (t *Tracker) ItemFailed() {
	t.failed.Add(1)
	t.inFlight.Add(-1)
	t.completed.Add(1)
}

// Completed returns the number of items that reached a terminal state.
func (t *Tracker) Completed() int64 { return t.completed.Load() }

// Succeeded returns the number of successful items.
func (t *Tracker) Succeeded() int64 { return t.succeeded.Load() }

// Failed returns the number of failed items.
func (t *Tracker) Failed() int64 { return t.failed.Load() }

// InFlight returns the number of currently active transfers.
func (t *Tracker) InFlight() int64 { return t.inFlight.Load() }

// Bytes returns the total bytes copied so far.
func (t *Tracker) Bytes() int64 { return t.bytes.Load() }

// Reporter periodically prints tracker state in human-readable form.
type Reporter struct {
	tracker  *Tracker
	out      io.Writer
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReporter creates a reporter printing to out every interval.
func NewReporter(t *Tracker, out io.Writer, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Reporter{
		tracker:  t,
		out:      out,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins periodic output.
func (r *Reporter) Start() {
	go r.loop()
}

// Stop halts output after printing a final line.
func (r *Reporter) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *Reporter) loop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.print()
			return
		case <-ticker.C:
			r.print()
		}
	}
}

func (r *Reporter) print() {
	fmt.Fprintf(r.out, "[transfer] %d/%d done | %d ok | %d failed | %d in flight | %s copied\n",
		r.tracker.Completed(),
		r.tracker.total,
		r.tracker.Succeeded(),
		r.tracker.Failed(),
		r.tracker.InFlight(),
		formatBytes(r.tracker.Bytes()),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
