package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrCancelled = errors.New("scoring cancelled")
	ErrStopped   = errors.New("worker pool stopped")
	ErrNoFetcher = errors.New("no input source")
)
