// Package transfer moves single remote objects into the destination store.
package transfer

// Status is the terminal state of one transfer.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Request describes one object to transfer. Immutable once submitted.
// DestinationPath is optional; when empty the coordinator resolves a
// name from the source URL.
type Request struct {
	SourceURL       string
	DestinationPath string
}

// Result is the terminal outcome of one Request. Exactly one Result is
// produced per Request and never mutated afterwards. It is
// self-describing: it carries its own source URL, so results may be
// collected in any order.
type Result struct {
	Status          Status
	SourceURL       string
	DestinationPath string
	Size            int64
	Error           string
}

// Succeeded builds a success result.
func Succeeded(sourceURL, destinationPath string, size int64) Result {
	return Result{
		Status:          StatusSuccess,
		SourceURL:       sourceURL,
		DestinationPath: destinationPath,
		Size:            size,
	}
}

// Failed builds a failure result.
func Failed(sourceURL, errMsg string) Result {
	return Result{
		Status:    StatusFailed,
		SourceURL: sourceURL,
		Error:     errMsg,
	}
}

// IsSuccess reports whether the transfer reached the success state.
func (r Result) IsSuccess() bool {
	return r.Status == StatusSuccess
}
