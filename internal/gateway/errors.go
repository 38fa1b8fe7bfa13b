package gateway

import "errors"

// Terminal admission errors. Each resolves a submission's result channel;
// none of them is retried inside the gateway. Retry policy, if any, belongs
// to the caller.
var (
	// ErrQueueFull is returned synchronously at submit time when all
	// execution slots are busy and the pending queue is at capacity.
	ErrQueueFull = errors.New("request queue is full")

	// ErrQueueTimeout resolves an admitted item that waited in the queue
	// longer than the configured timeout. The item's work is never executed.
	ErrQueueTimeout = errors.New("request timed out waiting in queue")

	// ErrShuttingDown resolves items still queued when the gateway closes,
	// and rejects submissions made after Close.
	ErrShuttingDown = errors.New("gateway is shutting down")
)
