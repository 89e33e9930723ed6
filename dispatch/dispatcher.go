// Package dispatch runs the overlap engine off the interactive loop and hands results back to it.
//
// Ownership: Dispatch copies the collection, the job owns the copy, and the finished slice travels
// back inside an event.EventDetectComplete on the dispatcher's own completion queue. That queue holds
// MaxPending entries and a pass counts as pending until delivered, so a finished pass always has a
// slot. Only the loop that drains the queue calls Deliver, so the published collection has a single
// writer. Completions can arrive out of order; Deliver marks a
// completion stale when a newer one was already delivered, and the callback decides what to do with it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"

	"github.com/lixenwraith/rectlap/core"
	"github.com/lixenwraith/rectlap/event"
	"github.com/lixenwraith/rectlap/geom"
	"github.com/lixenwraith/rectlap/metrics"
	"github.com/lixenwraith/rectlap/overlap"
)

const (
	// DefaultPoolSize bounds concurrently running engine passes
	DefaultPoolSize = 4
	// DefaultMaxPending bounds dispatched but undelivered passes
	DefaultMaxPending = 64
)

var (
	// ErrClosed is returned by Dispatch after Close
	ErrClosed = errors.New("dispatcher closed")
	// ErrSubmit wraps a worker pool failure; the pass never started
	ErrSubmit = errors.New("dispatch submit failed")
	// ErrBusy is returned when MaxPending passes await delivery or the pool has no free goroutine
	ErrBusy = errors.New("dispatcher busy")
)

// Submitter starts a background unit of work
// *ants.Pool satisfies it
type Submitter interface {
	Submit(task func()) error
}

// Options configures a Dispatcher
type Options struct {
	PoolSize   int
	MaxPending int
	Logger     logr.Logger
	Metrics    *metrics.Metrics
}

// Ticket identifies one dispatch
type Ticket struct {
	Seq   uint64
	RunID uuid.UUID
}

// Result is handed to the completion callback on the loop
type Result struct {
	Ticket
	Rects   []geom.Rectangle // Owned by the receiver
	Stats   overlap.Stats
	Elapsed time.Duration
	Stale   bool // A newer dispatch was delivered first
}

// Completion is the payload of event.EventDetectComplete
type Completion struct {
	result     Result
	onComplete func(Result)
}

// Ticket returns the identity of the finished dispatch
func (c *Completion) Ticket() Ticket {
	return c.result.Ticket
}

// Dispatcher submits engine passes to a worker pool and posts their completions to a queue
type Dispatcher struct {
	completions *event.Queue
	submitter   Submitter
	pool        *ants.Pool          // nil when a custom submitter is used
	workers     *semaphore.Weighted // Bounds concurrently running passes to PoolSize
	maxPending  int64
	logger     logr.Logger
	metrics    *metrics.Metrics

	seq       atomic.Uint64
	pending   atomic.Int64
	running   atomic.Int64
	delivered uint64 // Highest delivered Seq; loop-confined

	mu     sync.Mutex // Guards closed against wg.Add
	closed bool
	wg     sync.WaitGroup
}

// New creates a Dispatcher backed by a nonblocking ants pool with one goroutine per pending pass
// Submit never waits; passes beyond PoolSize park on a semaphore inside their goroutine, so the
// calling loop keeps drawing and reading input while the engine is saturated
// Job panics go to core.HandleCrash
func New(opts Options) (*Dispatcher, error) {
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	pool, err := ants.NewPool(opts.MaxPending,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(core.HandleCrash),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	d := NewWithSubmitter(pool, opts)
	d.pool = pool
	return d, nil
}

// NewWithSubmitter creates a Dispatcher on a caller-supplied submitter
func NewWithSubmitter(submitter Submitter, opts Options) *Dispatcher {
	maxPending := opts.MaxPending
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Dispatcher{
		completions: event.NewQueue(maxPending),
		submitter:   submitter,
		workers:     semaphore.NewWeighted(int64(poolSize)),
		maxPending:  int64(maxPending),
		logger:      opts.Logger.WithName("dispatcher"),
		metrics:     opts.Metrics,
	}
}

// Completions is the queue the loop drains and hands to Deliver
// Only EventDetectComplete events are posted to it
func (d *Dispatcher) Completions() *event.Queue {
	return d.completions
}

// Dispatch starts one engine pass on a copy of rects
// onComplete runs exactly once, on the goroutine that calls Deliver, after the pass finishes
// The caller keeps ownership of rects; later mutations do not affect the pass
func (d *Dispatcher) Dispatch(rects []geom.Rectangle, onComplete func(Result)) (Ticket, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.metrics.DispatchFailed(metrics.ReasonClosed)
		return Ticket{}, ErrClosed
	}
	if d.pending.Load() >= d.maxPending {
		d.mu.Unlock()
		d.metrics.DispatchFailed(metrics.ReasonBusy)
		return Ticket{}, fmt.Errorf("%w: %d passes awaiting delivery", ErrBusy, d.maxPending)
	}
	d.wg.Add(1)
	d.pending.Add(1)
	d.mu.Unlock()

	ticket := Ticket{Seq: d.seq.Add(1), RunID: uuid.New()}
	owned := geom.Clone(rects)
	logger := d.logger.WithValues("seq", ticket.Seq, "run", ticket.RunID)

	job := func() {
		defer d.wg.Done()
		_ = d.workers.Acquire(context.Background(), 1) // Never fails with a background context
		defer d.workers.Release(1)
		d.running.Add(1)
		defer d.running.Add(-1)
		d.run(ticket, owned, onComplete, logger)
	}

	if err := d.submitter.Submit(job); err != nil {
		d.pending.Add(-1)
		d.wg.Done()
		// A worker that finished but has not yet returned to the pool can briefly hold the last slot
		if errors.Is(err, ants.ErrPoolOverload) {
			d.metrics.DispatchFailed(metrics.ReasonBusy)
			return Ticket{}, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		d.metrics.DispatchFailed(metrics.ReasonSubmit)
		return Ticket{}, fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	d.metrics.Dispatched()
	logger.V(1).Info("Dispatched detection", "rects", len(owned))
	return ticket, nil
}

// run executes on a pool worker
func (d *Dispatcher) run(ticket Ticket, rects []geom.Rectangle, onComplete func(Result), logger logr.Logger) {
	start := time.Now()
	stats := overlap.ComputeOverlapsStats(rects)
	elapsed := time.Since(start)
	d.metrics.EngineRun(stats, elapsed)

	logger.V(1).Info("Detection finished",
		"elapsed", elapsed,
		"overlapping", stats.Marked,
		"maxActive", stats.MaxActive,
		"comparisons", stats.Comparisons,
	)

	c := &Completion{
		result: Result{
			Ticket:  ticket,
			Rects:   rects,
			Stats:   stats,
			Elapsed: elapsed,
		},
		onComplete: onComplete,
	}
	if err := d.completions.Push(event.Event{Type: event.EventDetectComplete, Payload: c}); err != nil {
		// Pending passes never outnumber the queue's slots, so only a closed queue refuses
		d.pending.Add(-1)
		d.metrics.DispatchFailed(metrics.ReasonQueue)
		logger.Error(err, "Completion not delivered")
	}
}

// Deliver runs the completion callback of c
// Must be called from the single loop goroutine that drains Completions
func (d *Dispatcher) Deliver(c *Completion) {
	d.pending.Add(-1)

	res := c.result
	if res.Seq <= d.delivered {
		res.Stale = true
		d.metrics.Stale()
	} else {
		d.delivered = res.Seq
	}

	if c.onComplete != nil {
		c.onComplete(res)
	}
}

// InFlight returns passes currently executing the engine
func (d *Dispatcher) InFlight() int {
	return int(d.running.Load())
}

// Pending returns passes dispatched but not yet delivered
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Close rejects new dispatches, waits for running passes and releases the pool
// Completions already queued remain deliverable; idempotent
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	if d.pool != nil {
		d.pool.Release()
	}
	return nil
}

// Name implements Service
func (d *Dispatcher) Name() string {
	return "dispatcher"
}

// Dependencies implements Service
func (d *Dispatcher) Dependencies() []string {
	return nil
}

// Init implements Service
func (d *Dispatcher) Init(ctx context.Context) error {
	return nil
}

// Start implements Service
func (d *Dispatcher) Start() error {
	return nil
}

// Stop implements Service
func (d *Dispatcher) Stop() error {
	return d.Close()
}
