// Package gateway bounds concurrent access to the inference backend.
//
// The backend degrades badly under concurrent load, so every inference
// request passes through a Gateway that either runs it immediately, parks it
// in a bounded FIFO queue, or rejects it outright. Submission never blocks
// the caller: each submission returns a one-shot result channel that is
// resolved exactly once, whether the work ran, timed out in the queue, was
// rejected, or panicked.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults applied by New when the corresponding Config field is unset.
const (
	DefaultMaxConcurrent = 3
	DefaultMaxQueueSize  = 10
	DefaultQueueTimeout  = 30 * time.Second
)

// Prober reports whether the inference backend is reachable and whether the
// configured model is ready to serve. Implementations must not block beyond
// their own probe timeout.
type Prober interface {
	Probe(ctx context.Context) (reachable bool, modelReady bool, err error)
}

// Config holds the admission limits for a Gateway.
type Config struct {
	// MaxConcurrent is the number of submissions allowed to execute at once.
	MaxConcurrent int

	// MaxQueueSize bounds the pending queue. Zero disables queueing, so
	// submissions are rejected as soon as all execution slots are busy.
	MaxQueueSize int

	// QueueTimeout is the longest a submission may wait in the queue.
	// Expiry is evaluated when an item is popped for execution, not by a
	// background timer, so an item can sit expired in the queue until a
	// slot frees up.
	QueueTimeout time.Duration
}

// Work is a unit of inference executed under an admission slot.
type Work[T any] func(ctx context.Context) (T, error)

// Result carries the outcome of a submission. Exactly one Result is
// delivered per submission.
type Result[T any] struct {
	Value T
	Err   error
}

// ServiceStatus is a point-in-time snapshot of the gateway and the backend
// behind it.
type ServiceStatus struct {
	Reachable          bool    `json:"reachable"`
	ModelReady         bool    `json:"model_ready"`
	CurrentInFlight    int     `json:"in_flight"`
	QueuedCount        int     `json:"queued"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Error              string  `json:"error,omitempty"`
}

// pendingItem is a type-erased submission. run executes the work and
// resolves the result channel; expire resolves it with a terminal error
// without ever running the work. Exactly one of the two is invoked.
type pendingItem struct {
	id         uuid.UUID
	enqueuedAt time.Time
	run        func()
	expire     func(error)
}

// Gateway admits inference work up to a concurrency limit and queues the
// overflow. All methods are safe for concurrent use.
type Gateway struct {
	maxConcurrent int
	maxQueueSize  int
	queueTimeout  time.Duration

	prober Prober
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight int
	pending  []*pendingItem
	closed   bool
}

// New creates a Gateway with the given limits. It panics if prober is nil.
// Non-positive MaxConcurrent and QueueTimeout values fall back to the
// defaults; MaxQueueSize falls back only when negative, since zero is a
// meaningful setting that disables queueing.
func New(cfg Config, prober Prober, log *slog.Logger) *Gateway {
	if prober == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("prober cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.MaxQueueSize < 0 {
		cfg.MaxQueueSize = DefaultMaxQueueSize
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = DefaultQueueTimeout
	}

	return &Gateway{
		maxConcurrent: cfg.MaxConcurrent,
		maxQueueSize:  cfg.MaxQueueSize,
		queueTimeout:  cfg.QueueTimeout,
		prober:        prober,
		logger:        log.With(slog.String("component", "gateway")),
		now:           time.Now,
	}
}

// Submit offers work to the gateway and returns immediately. The returned
// channel is buffered and receives exactly one Result: the work's own return
// values, or ErrQueueFull, ErrQueueTimeout, or ErrShuttingDown if the work
// was never executed. A panic inside work is recovered and delivered as an
// error, and never takes down the execution slot.
//
// ctx is passed through to work unchanged; the gateway adds no deadline of
// its own to execution.
func Submit[T any](g *Gateway, ctx context.Context, work Work[T]) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	id := uuid.New()

	run := func() {
		started := g.now()
		var res Result[T]
		func() {
			defer func() {
				if r := recover(); r != nil {
					g.logger.Error("inference work panicked",
						slog.String("submission_id", id.String()),
						slog.Any("panic", r))
					res = Result[T]{Err: fmt.Errorf("inference work panicked: %v", r)}
				}
			}()
			value, err := work(ctx)
			res = Result[T]{Value: value, Err: err}
		}()

		workDurationSeconds.Observe(g.now().Sub(started).Seconds())
		if res.Err != nil {
			completedTotal.WithLabelValues(outcomeError).Inc()
		} else {
			completedTotal.WithLabelValues(outcomeSuccess).Inc()
		}

		// Free the slot and admit the next queued item before delivering
		// the result, so a caller that reacts to completion observes the
		// decremented in-flight count.
		g.release()
		ch <- res
	}

	expire := func(err error) {
		var zero T
		ch <- Result[T]{Value: zero, Err: err}
	}

	g.submit(&pendingItem{id: id, run: run, expire: expire})
	return ch
}

// submit applies the admission decision for one item: execute now, enqueue,
// or reject. It never blocks on the item's work.
func (g *Gateway) submit(item *pendingItem) {
	g.mu.Lock()

	if g.closed {
		g.mu.Unlock()
		item.expire(ErrShuttingDown)
		return
	}

	if g.inFlight < g.maxConcurrent {
		g.inFlight++
		inFlight := g.inFlight
		g.mu.Unlock()

		inFlightGauge.Inc()
		admittedTotal.WithLabelValues(admissionModeImmediate).Inc()
		g.logger.Debug("submission admitted",
			slog.String("submission_id", item.id.String()),
			slog.Int("in_flight", inFlight))
		go item.run()
		return
	}

	if len(g.pending) < g.maxQueueSize {
		item.enqueuedAt = g.now()
		g.pending = append(g.pending, item)
		depth := len(g.pending)
		g.mu.Unlock()

		queueDepthGauge.Inc()
		admittedTotal.WithLabelValues(admissionModeQueued).Inc()
		g.logger.Debug("submission queued",
			slog.String("submission_id", item.id.String()),
			slog.Int("queue_depth", depth))
		return
	}

	g.mu.Unlock()

	rejectedTotal.Inc()
	g.logger.Warn("submission rejected, queue full",
		slog.String("submission_id", item.id.String()),
		slog.Int("queue_size", g.maxQueueSize))
	item.expire(ErrQueueFull)
}

// release returns an execution slot and drains the queue head. Items that
// overstayed the queue timeout are expired and skipped; the first live item,
// if any, takes the freed slot.
func (g *Gateway) release() {
	g.mu.Lock()

	g.inFlight--
	var expired []*pendingItem
	var next *pendingItem
	for len(g.pending) > 0 {
		head := g.pending[0]
		g.pending = g.pending[1:]
		if g.now().Sub(head.enqueuedAt) > g.queueTimeout {
			expired = append(expired, head)
			continue
		}
		g.inFlight++
		next = head
		break
	}

	g.mu.Unlock()

	inFlightGauge.Dec()
	popped := len(expired)
	if next != nil {
		popped++
	}
	if popped > 0 {
		queueDepthGauge.Sub(float64(popped))
	}

	for _, item := range expired {
		expiredTotal.Inc()
		g.logger.Warn("queued submission expired",
			slog.String("submission_id", item.id.String()),
			slog.Duration("waited", g.now().Sub(item.enqueuedAt)))
		item.expire(ErrQueueTimeout)
	}

	if next != nil {
		inFlightGauge.Inc()
		g.logger.Debug("dequeued submission for execution",
			slog.String("submission_id", next.id.String()),
			slog.Duration("waited", g.now().Sub(next.enqueuedAt)))
		go next.run()
	}
}

// Status reports the backend probe outcome together with the gateway's
// admission counters. It never returns an error: probe failures and even a
// panicking prober are folded into the snapshot so a monitoring endpoint
// stays usable while the backend is down.
func (g *Gateway) Status(ctx context.Context) ServiceStatus {
	var status ServiceStatus

	func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("status probe panicked", slog.Any("panic", r))
				status.Error = fmt.Sprintf("status probe panicked: %v", r)
			}
		}()
		reachable, modelReady, err := g.prober.Probe(ctx)
		status.Reachable = reachable
		status.ModelReady = modelReady
		if err != nil {
			status.Error = err.Error()
		}
	}()

	g.mu.Lock()
	status.CurrentInFlight = g.inFlight
	status.QueuedCount = len(g.pending)
	g.mu.Unlock()

	status.UtilizationPercent = math.Round(float64(status.CurrentInFlight) / float64(g.maxConcurrent) * 100)
	return status
}

// Close rejects all future submissions and resolves every queued item with
// ErrShuttingDown. It does not wait for in-flight work; those submissions
// resolve normally when their work returns. Close is idempotent.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	drained := g.pending
	g.pending = nil
	g.mu.Unlock()

	if len(drained) > 0 {
		queueDepthGauge.Sub(float64(len(drained)))
		g.logger.Info("draining pending queue on shutdown", slog.Int("drained", len(drained)))
	}
	for _, item := range drained {
		item.expire(ErrShuttingDown)
	}
}
