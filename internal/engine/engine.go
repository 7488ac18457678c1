// Package engine fans transfer requests out to a bounded worker pool and
// collects the batch outcome.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Jombinoy/DOC/internal/httpx"
	"github.com/Jombinoy/DOC/internal/logging"
	"github.com/Jombinoy/DOC/internal/metrics"
	"github.com/Jombinoy/DOC/internal/naming"
	"github.com/Jombinoy/DOC/internal/progress"
	"github.com/Jombinoy/DOC/internal/report"
	"github.com/Jombinoy/DOC/internal/storage"
	"github.com/Jombinoy/DOC/internal/transfer"
)

// DefaultConcurrency caps simultaneous transfers when no limit is given.
// It exists to respect downstream rate limits and to bound peak memory
// and socket usage.
const DefaultConcurrency = 5

// Options configures the engine.
type Options struct {
	// Concurrency is a hard cap on in-flight transfers. Default 5.
	Concurrency int

	// HTTP configures the source fetch client.
	HTTP httpx.Options

	// Backend labels metrics with the destination backend name.
	Backend string

	// ProgressOutput enables periodic human-readable progress lines
	// when non-nil.
	ProgressOutput io.Writer

	// ProgressInterval is how often progress lines are printed.
	ProgressInterval time.Duration
}

// Engine coordinates one batch of transfers at a time.
type Engine struct {
	store            storage.Store
	client           *httpx.Client
	concurrency      int
	backend          string
	progressOutput   io.Writer
	progressInterval time.Duration
	log              *slog.Logger

	mu      sync.Mutex
	tracker *progress.Tracker
}

// New creates an engine writing to store.
func New(store storage.Store, opts Options) *Engine {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Engine{
		store:            store,
		client:           httpx.NewClient(opts.HTTP),
		concurrency:      concurrency,
		backend:          opts.Backend,
		progressOutput:   opts.ProgressOutput,
		progressInterval: opts.ProgressInterval,
		log:              logging.Component("engine"),
	}
}

// Progress returns the tracker for the current or most recent batch.
// It is a read-only side channel; nil before the first Run.
func (e *Engine) Progress() *progress.Tracker {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker
}

// Run transfers all requests and returns the batch report.
//
// All requests are accepted immediately; execution is throttled by the
// concurrency cap. Per-item failures are recorded in the report and
// never abort sibling transfers. Run waits for every scheduled item to
// reach a terminal state. Cancelling ctx stops dispatching new items;
// results already collected stay valid and the partial report is
// returned together with the context error.
func (e *Engine) Run(ctx context.Context, requests []transfer.Request) (*report.BatchReport, error) {
	start := time.Now().UTC()
	total := len(requests)

	batchID := logging.NewBatchID()
	log := logging.BatchLogger(batchID, total, e.concurrency)

	tracker := progress.NewTracker(total)
	e.mu.Lock()
	e.tracker = tracker
	e.mu.Unlock()

	if total == 0 {
		log.Info("empty batch, nothing to transfer")
		rep := report.Build(nil, 0, start, time.Now().UTC())
		rep.BatchID = batchID
		return rep, nil
	}

	log.Info("batch started")

	if e.progressOutput != nil {
		reporter := progress.NewReporter(tracker, e.progressOutput, e.progressInterval)
		reporter.Start()
		defer reporter.Stop()
	}

	jobs := make(chan transfer.Request)
	// Buffered to total so resolve failures can be recorded without a
	// collector running yet.
	results := make(chan transfer.Result, total)

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.workerLoop(ctx, workerID, jobs, results, tracker)
		}(i)
	}

	dispatched := e.dispatch(ctx, requests, jobs, results, tracker)

	wg.Wait()
	close(results)

	collected := make([]transfer.Result, 0, total)
	for r := range results {
		collected = append(collected, r)
	}

	end := time.Now().UTC()
	rep := report.Build(collected, total, start, end)
	rep.BatchID = batchID

	log.Info("batch finished",
		"successful", rep.Summary.SuccessfulTransfers,
		"failed", rep.Summary.FailedTransfers,
		"success_rate", rep.Summary.SuccessRate,
		"duration", end.Sub(start).String(),
	)

	if m := metrics.Get(); m != nil {
		m.BatchesCompleted.Inc()
	}

	if ctx.Err() != nil && dispatched < total {
		return rep, fmt.Errorf("batch cancelled after %d of %d items: %w", len(collected), total, ctx.Err())
	}

	return rep, nil
}

// dispatch resolves destination paths and feeds the worker pool.
// Requests whose locator cannot be parsed become immediate failures;
// they never reach a worker. Returns the number of requests that were
// handed to workers or recorded as resolve failures.
func (e *Engine) dispatch(ctx context.Context, requests []transfer.Request, jobs chan<- transfer.Request, results chan<- transfer.Result, tracker *progress.Tracker) int {
	defer close(jobs)

	dispatched := 0
	for _, req := range requests {
		if req.DestinationPath == "" {
			dest, err := naming.Resolve(req.SourceURL)
			if err != nil {
				tracker.ItemStarted()
				tracker.ItemFailed()
				e.recordFailureMetrics()
				results <- transfer.Failed(req.SourceURL, fmt.Sprintf("resolve destination: %v", err))
				dispatched++
				continue
			}
			req.DestinationPath = dest
		}

		select {
		case jobs <- req:
			dispatched++
		case <-ctx.Done():
			return dispatched
		}
	}

	return dispatched
}

// workerLoop processes jobs until the channel closes.
func (e *Engine) workerLoop(ctx context.Context, workerID int, jobs <-chan transfer.Request, results chan<- transfer.Result, tracker *progress.Tracker) {
	worker := transfer.NewWorker(e.client, e.store, logging.WorkerLogger(workerID))
	m := metrics.Get()

	for req := range jobs {
		tracker.ItemStarted()
		if m != nil {
			m.InFlightTransfers.Inc()
		}

		begin := time.Now()
		res := worker.Transfer(ctx, req)

		if m != nil {
			m.InFlightTransfers.Dec()
			m.TransferDuration.WithLabelValues(e.backend).Observe(time.Since(begin).Seconds())
		}

		if res.IsSuccess() {
			tracker.ItemSucceeded(res.Size)
			if m != nil {
				m.TransfersSucceeded.WithLabelValues(e.backend).Inc()
				m.BytesCopied.WithLabelValues(e.backend).Add(float64(res.Size))
			}
		} else {
			tracker.ItemFailed()
			e.recordFailureMetrics()
		}

		results <- res
	}
}

func (e *Engine) recordFailureMetrics() {
	if m := metrics.Get(); m != nil {
		m.TransfersFailed.WithLabelValues(e.backend).Inc()
	}
}
