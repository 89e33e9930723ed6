package event

import (
	"errors"
	"fmt"
	"math/bits"
	"sync/atomic"
)

// DefaultQueueSize is the ring capacity used when none is configured
const DefaultQueueSize = 256

var (
	// ErrQueueFull is returned by Push when every slot holds an undelivered event
	ErrQueueFull = errors.New("event queue full")
	// ErrQueueClosed is returned by Push after Close
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is a lock-free MPSC ring buffer feeding the interactive loop
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Consume: Single consumer (the loop)
//   - Published flags prevent reading partial writes
//
// Overflow: Push fails instead of overwriting, so every accepted event is consumed exactly once
type Queue struct {
	events    []Event
	published []atomic.Bool // True = slot fully written
	mask      uint64
	head      atomic.Uint64 // Read index, written by the consumer only
	tail      atomic.Uint64 // Write index
	closed    atomic.Bool
	ready     chan struct{}
}

// NewQueue creates a queue; size is rounded up to a power of two
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	capacity := uint64(1) << bits.Len64(uint64(size-1))
	return &Queue{
		events:    make([]Event, capacity),
		published: make([]atomic.Bool, capacity),
		mask:      capacity - 1,
		ready:     make(chan struct{}, 1),
	}
}

// Cap returns the ring capacity
func (q *Queue) Cap() int {
	return len(q.events)
}

// Push appends an event using CAS slot reservation
// Safe for concurrent producers. The consumer observes the event on its next Consume, never during Push
func (q *Queue) Push(ev Event) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	capacity := uint64(len(q.events))
	for {
		currentTail := q.tail.Load()
		if currentTail-q.head.Load() >= capacity {
			return fmt.Errorf("%w: %d pending, dropping %s", ErrQueueFull, capacity, ev.Type)
		}

		if q.tail.CompareAndSwap(currentTail, currentTail+1) {
			idx := currentTail & q.mask
			q.events[idx] = ev
			q.published[idx].Store(true) // MUST be after write
			q.signal()
			return nil
		}
	}
}

// signal wakes the consumer without blocking; one pending token is enough
func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives after one or more Push calls
// The consumer selects on it and then calls Consume
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Consume returns all pending events in FIFO order and advances head
// Single-consumer design. Stops at the first slot a producer reserved but has not yet published;
// that producer signals Ready after publishing
func (q *Queue) Consume() []Event {
	currentHead := q.head.Load()
	currentTail := q.tail.Load()
	if currentTail == currentHead {
		return nil
	}

	result := make([]Event, 0, currentTail-currentHead)
	for i := currentHead; i < currentTail; i++ {
		idx := i & q.mask
		if !q.published[idx].Load() {
			break // Writer incomplete
		}
		result = append(result, q.events[idx])
		q.events[idx] = Event{}
		q.published[idx].Store(false)
	}

	q.head.Store(currentHead + uint64(len(result)))
	if len(result) == 0 {
		return nil
	}
	return result
}

// Len returns approximate pending event count
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}

// Close rejects further pushes; already queued events remain consumable
func (q *Queue) Close() {
	q.closed.Store(true)
}
