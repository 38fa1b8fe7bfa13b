package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	reachable  bool
	modelReady bool
	err        error
}

func (p *stubProber) Probe(context.Context) (bool, bool, error) {
	return p.reachable, p.modelReady, p.err
}

type panicProber struct{}

func (panicProber) Probe(context.Context) (bool, bool, error) {
	panic("probe exploded")
}

// fakeClock lets queue timeout tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(t *testing.T, cfg Config) *Gateway {
	t.Helper()
	return New(cfg, &stubProber{reachable: true, modelReady: true}, discardLogger())
}

// awaitResult receives one Result or fails the test after a grace period.
func awaitResult[T any](t *testing.T, ch <-chan Result[T]) Result[T] {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for submission result")
		return Result[T]{}
	}
}

func waitStarted(t *testing.T, started <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for work %d of %d to start", i+1, n)
		}
	}
}

func TestSubmitResolvesValue(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 1})
	defer g.Close()

	ch := Submit(g, context.Background(), func(context.Context) (string, error) {
		return "a cat on a windowsill", nil
	})

	res := awaitResult(t, ch)
	require.NoError(t, res.Err)
	assert.Equal(t, "a cat on a windowsill", res.Value)
}

func TestSubmitResolvesWorkError(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 1})
	defer g.Close()

	wantErr := errors.New("backend returned garbage")
	ch := Submit(g, context.Background(), func(context.Context) (string, error) {
		return "", wantErr
	})

	res := awaitResult(t, ch)
	assert.ErrorIs(t, res.Err, wantErr)
	assert.Empty(t, res.Value)
}

func TestSubmitRunsImmediatelyBelowLimit(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 3, MaxQueueSize: 10})
	defer g.Close()

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	work := func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 0, nil
	}

	ch1 := Submit(g, context.Background(), work)
	ch2 := Submit(g, context.Background(), work)
	waitStarted(t, started, 2)

	status := g.Status(context.Background())
	assert.Equal(t, 2, status.CurrentInFlight)
	assert.Equal(t, 0, status.QueuedCount)
	assert.Equal(t, float64(67), status.UtilizationPercent)

	close(release)
	require.NoError(t, awaitResult(t, ch1).Err)
	require.NoError(t, awaitResult(t, ch2).Err)
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 1})
	defer g.Close()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{}, 1)

	Submit(g, context.Background(), func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 1, nil
	})
	waitStarted(t, started, 1)

	Submit(g, context.Background(), func(context.Context) (int, error) {
		return 2, nil
	})

	rejected := Submit(g, context.Background(), func(context.Context) (int, error) {
		return 3, nil
	})
	res := awaitResult(t, rejected)
	assert.ErrorIs(t, res.Err, ErrQueueFull)

	status := g.Status(context.Background())
	assert.Equal(t, 1, status.QueuedCount)
}

func TestZeroQueueSizeRejectsImmediately(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 0})
	defer g.Close()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{}, 1)

	Submit(g, context.Background(), func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 0, nil
	})
	waitStarted(t, started, 1)

	res := awaitResult(t, Submit(g, context.Background(), func(context.Context) (int, error) {
		return 0, nil
	}))
	assert.ErrorIs(t, res.Err, ErrQueueFull)
}

func TestQueueDrainPreservesSubmissionOrder(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 10})
	defer g.Close()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocker := Submit(g, context.Background(), func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 0, nil
	})
	waitStarted(t, started, 1)

	order := make(chan int, 3)
	var queued []<-chan Result[int]
	for i := 1; i <= 3; i++ {
		i := i
		queued = append(queued, Submit(g, context.Background(), func(context.Context) (int, error) {
			order <- i
			return i, nil
		}))
	}

	close(release)
	require.NoError(t, awaitResult(t, blocker).Err)

	for want := 1; want <= 3; want++ {
		res := awaitResult(t, queued[want-1])
		require.NoError(t, res.Err)
		assert.Equal(t, want, res.Value)

		select {
		case got := <-order:
			assert.Equal(t, want, got, "queued work executed out of submission order")
		case <-time.After(2 * time.Second):
			t.Fatalf("queued work %d never executed", want)
		}
	}
}

func TestQueueTimeoutExpiresStaleItems(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 5, QueueTimeout: 30 * time.Second})
	defer g.Close()

	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g.now = clk.Now

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocker := Submit(g, context.Background(), func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 0, nil
	})
	waitStarted(t, started, 1)

	var executed atomic.Bool
	stale := Submit(g, context.Background(), func(context.Context) (int, error) {
		executed.Store(true)
		return 99, nil
	})

	// The stale item sits in the queue past its timeout. Nothing resolves it
	// until a slot frees up, since expiry is only evaluated at pop time.
	clk.Advance(31 * time.Second)
	select {
	case <-stale:
		t.Fatal("queued item resolved before a slot was released")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, awaitResult(t, blocker).Err)

	res := awaitResult(t, stale)
	assert.ErrorIs(t, res.Err, ErrQueueTimeout)
	assert.False(t, executed.Load(), "expired work must never execute")

	// The slot freed by the blocker stays free after the expiry pass.
	res = awaitResult(t, Submit(g, context.Background(), func(context.Context) (int, error) {
		return 7, nil
	}))
	require.NoError(t, res.Err)
	assert.Equal(t, 7, res.Value)
}

func TestQueueTimeoutSkipsToFreshItem(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 5, QueueTimeout: 30 * time.Second})
	defer g.Close()

	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g.now = clk.Now

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocker := Submit(g, context.Background(), func(context.Context) (int, error) {
		started <- struct{}{}
		<-release
		return 0, nil
	})
	waitStarted(t, started, 1)

	stale := Submit(g, context.Background(), func(context.Context) (int, error) {
		return 1, nil
	})

	clk.Advance(31 * time.Second)

	fresh := Submit(g, context.Background(), func(context.Context) (int, error) {
		return 2, nil
	})

	close(release)
	require.NoError(t, awaitResult(t, blocker).Err)

	assert.ErrorIs(t, awaitResult(t, stale).Err, ErrQueueTimeout)

	res := awaitResult(t, fresh)
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Value, "fresh item behind an expired one should still run")
}

func TestWorkPanicReleasesSlot(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 1})
	defer g.Close()

	res := awaitResult(t, Submit(g, context.Background(), func(context.Context) (int, error) {
		panic("model blew up")
	}))
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "panicked")

	// The slot is released, so the next submission runs immediately.
	next := awaitResult(t, Submit(g, context.Background(), func(context.Context) (int, error) {
		return 12, nil
	}))
	require.NoError(t, next.Err)
	assert.Equal(t, 12, next.Value)

	status := g.Status(context.Background())
	assert.Equal(t, 0, status.CurrentInFlight)
}

func TestSaturationLifecycle(t *testing.T) {
	g := newTestGateway(t, Config{MaxConcurrent: 3, MaxQueueSize: 10})
	defer g.Close()

	relFirst := make(chan struct{})
	relQueued := make(chan struct{})
	startedFirst := make(chan struct{}, 3)
	startedQueued := make(chan struct{}, 10)

	var running []<-chan Result[int]
	for i := 0; i < 3; i++ {
		running = append(running, Submit(g, context.Background(), func(context.Context) (int, error) {
			startedFirst <- struct{}{}
			<-relFirst
			return 0, nil
		}))
	}
	waitStarted(t, startedFirst, 3)

	var queued []<-chan Result[int]
	for i := 0; i < 10; i++ {
		queued = append(queued, Submit(g, context.Background(), func(context.Context) (int, error) {
			startedQueued <- struct{}{}
			<-relQueued
			return 0, nil
		}))
	}

	status := g.Status(context.Background())
	assert.Equal(t, 3, status.CurrentInFlight)
	assert.Equal(t, 10, status.QueuedCount)
	assert.Equal(t, float64(100), status.UtilizationPercent)

	// The 14th and 15th submissions find no slot and no queue room.
	for i := 0; i < 2; i++ {
		res := awaitResult(t, Submit(g, context.Background(), func(context.Context) (int, error) {
			return 0, nil
		}))
		assert.ErrorIs(t, res.Err, ErrQueueFull)
	}

	// Completing the running three admits exactly the next three.
	close(relFirst)
	for _, ch := range running {
		require.NoError(t, awaitResult(t, ch).Err)
	}
	waitStarted(t, startedQueued, 3)

	status = g.Status(context.Background())
	assert.Equal(t, 3, status.CurrentInFlight)
	assert.Equal(t, 7, status.QueuedCount)

	close(relQueued)
	for _, ch := range queued {
		require.NoError(t, awaitResult(t, ch).Err)
	}

	status = g.Status(context.Background())
	assert.Equal(t, 0, status.CurrentInFlight)
	assert.Equal(t, 0, status.QueuedCount)
	assert.Equal(t, float64(0), status.UtilizationPercent)
}

func TestStatus(t *testing.T) {
	t.Run("idle gateway reports zero utilization", func(t *testing.T) {
		g := newTestGateway(t, Config{MaxConcurrent: 3, MaxQueueSize: 10})
		defer g.Close()

		status := g.Status(context.Background())
		assert.True(t, status.Reachable)
		assert.True(t, status.ModelReady)
		assert.Equal(t, 0, status.CurrentInFlight)
		assert.Equal(t, 0, status.QueuedCount)
		assert.Equal(t, float64(0), status.UtilizationPercent)
		assert.Empty(t, status.Error)
	})

	t.Run("utilization rounds to nearest integer", func(t *testing.T) {
		g := newTestGateway(t, Config{MaxConcurrent: 3, MaxQueueSize: 10})
		defer g.Close()

		release := make(chan struct{})
		defer close(release)
		started := make(chan struct{}, 1)
		Submit(g, context.Background(), func(context.Context) (int, error) {
			started <- struct{}{}
			<-release
			return 0, nil
		})
		waitStarted(t, started, 1)

		status := g.Status(context.Background())
		assert.Equal(t, float64(33), status.UtilizationPercent)
	})

	t.Run("probe failure is folded into the snapshot", func(t *testing.T) {
		prober := &stubProber{reachable: false, modelReady: false, err: errors.New("inference service is not available")}
		g := New(Config{MaxConcurrent: 3, MaxQueueSize: 10}, prober, discardLogger())
		defer g.Close()

		status := g.Status(context.Background())
		assert.False(t, status.Reachable)
		assert.False(t, status.ModelReady)
		assert.Equal(t, "inference service is not available", status.Error)
		assert.Equal(t, float64(0), status.UtilizationPercent)
	})

	t.Run("panicking prober does not take down the status call", func(t *testing.T) {
		g := New(Config{MaxConcurrent: 3, MaxQueueSize: 10}, panicProber{}, discardLogger())
		defer g.Close()

		var status ServiceStatus
		assert.NotPanics(t, func() {
			status = g.Status(context.Background())
		})
		assert.False(t, status.Reachable)
		assert.Contains(t, status.Error, "panicked")
	})
}

func TestClose(t *testing.T) {
	t.Run("drains queued items and rejects new submissions", func(t *testing.T) {
		g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 5})

		release := make(chan struct{})
		started := make(chan struct{}, 1)
		running := Submit(g, context.Background(), func(context.Context) (int, error) {
			started <- struct{}{}
			<-release
			return 42, nil
		})
		waitStarted(t, started, 1)

		var executed atomic.Bool
		queued := Submit(g, context.Background(), func(context.Context) (int, error) {
			executed.Store(true)
			return 0, nil
		})

		g.Close()

		res := awaitResult(t, queued)
		assert.ErrorIs(t, res.Err, ErrShuttingDown)
		assert.False(t, executed.Load())

		late := awaitResult(t, Submit(g, context.Background(), func(context.Context) (int, error) {
			return 0, nil
		}))
		assert.ErrorIs(t, late.Err, ErrShuttingDown)

		// Work already in flight still resolves normally.
		close(release)
		got := awaitResult(t, running)
		require.NoError(t, got.Err)
		assert.Equal(t, 42, got.Value)
	})

	t.Run("is idempotent", func(t *testing.T) {
		g := newTestGateway(t, Config{MaxConcurrent: 1, MaxQueueSize: 1})
		g.Close()
		assert.NotPanics(t, g.Close)
	})
}

func TestNew(t *testing.T) {
	t.Run("applies defaults for unset limits", func(t *testing.T) {
		g := New(Config{}, &stubProber{}, nil)
		defer g.Close()

		assert.Equal(t, DefaultMaxConcurrent, g.maxConcurrent)
		assert.Equal(t, DefaultMaxQueueSize, g.maxQueueSize)
		assert.Equal(t, DefaultQueueTimeout, g.queueTimeout)
	})

	t.Run("keeps an explicit zero queue size", func(t *testing.T) {
		g := New(Config{MaxConcurrent: 2, MaxQueueSize: 0, QueueTimeout: time.Second}, &stubProber{}, discardLogger())
		defer g.Close()

		assert.Equal(t, 0, g.maxQueueSize)
	})

	t.Run("panics on nil prober", func(t *testing.T) {
		assert.Panics(t, func() {
			New(Config{}, nil, discardLogger())
		})
	})
}
