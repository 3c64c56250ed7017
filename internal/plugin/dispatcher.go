package plugin

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/waveoff/internal/gesture"
)

// Stats counts dispatcher activity.
type Stats struct {
	// Queued is the number of requests accepted into the queue.
	Queued uint64 `json:"queued"`
	// Dropped is the number of requests rejected because the queue was full
	// or the dispatcher was closed.
	Dropped uint64 `json:"dropped"`
	// Delivered counts successful hook executions.
	Delivered uint64 `json:"delivered"`
	// Failed counts hook executions that errored or reported failure.
	Failed uint64 `json:"failed"`
}

// Dispatcher delivers requests to matching hooks from a bounded queue.
// Publish never blocks: when the queue is full the request is dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *slog.Logger
	queue    chan *Request
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc

	queued    atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher creates a Dispatcher with room for queueSize pending
// requests.
func NewDispatcher(manager *Manager, executor *Executor, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		logger:   logger.With("component", "hooks"),
		queue:    make(chan *Request, queueSize),
		now:      time.Now,
	}
}

// Start runs the delivery worker until Close is called. Cancelling ctx does
// not stop delivery: events published while sessions shut down still reach
// their hooks, each bounded by the executor timeout.
func (d *Dispatcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for req := range d.queue {
			d.deliver(runCtx, req)
		}
	}()
}

// Publish enqueues req without blocking and reports whether it was accepted.
func (d *Dispatcher) Publish(req *Request) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.queue <- req:
		d.queued.Add(1)
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("hook queue full, dropping event",
			"session_id", req.SessionID, "event", req.Event)
		return false
	}
}

// Listener returns a gesture listener that publishes a session's events.
func (d *Dispatcher) Listener(sessionID string) gesture.Listener {
	return func(ev gesture.Event) {
		d.Publish(NewRequest(sessionID, ev, d.now()))
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:    d.queued.Load(),
		Dropped:   d.dropped.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
	}
}

// Close stops accepting requests and waits for queued ones to be delivered.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	cancel := d.cancel
	d.mu.Unlock()

	d.wg.Wait()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, req *Request) {
	for _, p := range d.manager.Matching(req) {
		if ctx.Err() != nil {
			d.failed.Add(1)
			continue
		}

		resp, err := d.executor.Execute(ctx, p, req)
		switch {
		case err != nil:
			d.failed.Add(1)
			d.logger.Warn("hook failed", "hook", p.Manifest.Name, "session_id", req.SessionID, "error", err)
		case !resp.Success:
			d.failed.Add(1)
			d.logger.Warn("hook reported failure", "hook", p.Manifest.Name, "session_id", req.SessionID, "error", resp.Error)
		default:
			d.delivered.Add(1)
			d.logger.Debug("hook delivered", "hook", p.Manifest.Name, "session_id", req.SessionID, "event", req.Event)
		}
	}
}
