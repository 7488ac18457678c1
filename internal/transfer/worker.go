package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Jombinoy/DOC/internal/httpx"
	"github.com/Jombinoy/DOC/internal/storage"
)

// Worker streams one source object into the destination store.
type Worker struct {
	client *httpx.Client
	store  storage.Store
	log    *slog.Logger
}

// NewWorker creates a worker reading via client and writing to store.
func NewWorker(client *httpx.Client, store storage.Store, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.With("component", "worker")
	}
	return &Worker{
		client: client,
		store:  store,
		log:    log,
	}
}

// Transfer copies the object at req.SourceURL to req.DestinationPath.
//
// Source bytes are piped straight into the store writer, so the payload
// is never held in memory whole and a slow destination throttles the
// source read. Any failure becomes a Failure result; errors never
// propagate past the worker boundary, so one bad item cannot abort its
// siblings. An object already present at the destination path is
// overwritten.
func (w *Worker) Transfer(ctx context.Context, req Request) Result {
	resp, err := w.client.Get(ctx, req.SourceURL)
	if err != nil {
		return w.failed(req, fmt.Sprintf("fetch source: %v", err))
	}
	defer resp.Body.Close()

	dst, err := w.store.NewWriter(ctx, req.DestinationPath)
	if err != nil {
		return w.failed(req, fmt.Sprintf("open destination: %v", err))
	}

	size, err := io.Copy(dst, resp.Body)
	if err != nil {
		// Discard the partial write; a failed item must leave nothing
		// at the destination key.
		dst.Abort()
		return w.failed(req, fmt.Sprintf("copy to destination: %v", err))
	}

	if err := dst.Close(); err != nil {
		return w.failed(req, fmt.Sprintf("finalize destination: %v", err))
	}

	w.log.Info("transfer complete",
		"source_url", req.SourceURL,
		"destination_path", req.DestinationPath,
		"size", size,
		"reported_length", resp.ContentLength,
	)

	return Succeeded(req.SourceURL, req.DestinationPath, size)
}

func (w *Worker) failed(req Request, msg string) Result {
	w.log.Error("transfer failed",
		"source_url", req.SourceURL,
		"destination_path", req.DestinationPath,
		"error", msg,
	)
	return Failed(req.SourceURL, msg)
}
