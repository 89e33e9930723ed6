package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueCapacityRounding verifies ring sizes round up to a power of two
func TestQueueCapacityRounding(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, DefaultQueueSize},
		{-3, DefaultQueueSize},
		{1, 1},
		{2, 2},
		{3, 4},
		{256, 256},
		{300, 512},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewQueue(tt.size).Cap(), "size %d", tt.size)
	}
}

// TestQueueFIFO verifies events come out in push order
func TestQueueFIFO(t *testing.T) {
	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(Event{Type: EventDetectComplete, Payload: i}))
	}
	assert.Equal(t, 5, q.Len())

	got := q.Consume()
	require.Len(t, got, 5)
	for i, ev := range got {
		assert.Equal(t, i, ev.Payload)
	}
	assert.Nil(t, q.Consume())
	assert.Equal(t, 0, q.Len())
}

// TestQueueFullRejects verifies a full ring refuses instead of overwriting
func TestQueueFullRejects(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Push(Event{Type: EventDetectComplete, Payload: 1}))
	require.NoError(t, q.Push(Event{Type: EventDetectComplete, Payload: 2}))

	err := q.Push(Event{Type: EventDetectComplete, Payload: 3})
	require.ErrorIs(t, err, ErrQueueFull)

	got := q.Consume()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Payload)
	assert.Equal(t, 2, got[1].Payload)

	// Slots are reusable after consumption
	require.NoError(t, q.Push(Event{Type: EventQuit}))
	got = q.Consume()
	require.Len(t, got, 1)
	assert.Equal(t, EventQuit, got[0].Type)
}

// TestQueueClosed verifies pushes fail after Close while queued events drain
func TestQueueClosed(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.Push(Event{Type: EventDetectRequest}))
	q.Close()

	assert.ErrorIs(t, q.Push(Event{Type: EventDetectRequest}), ErrQueueClosed)
	assert.Len(t, q.Consume(), 1)
}

// TestQueueReadySignal verifies Push wakes the consumer and never blocks on the signal
func TestQueueReadySignal(t *testing.T) {
	q := NewQueue(8)

	select {
	case <-q.Ready():
		t.Fatal("ready fired before any push")
	default:
	}

	// Several pushes collapse into one pending token
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(Event{Type: EventDetectRequest}))
	}

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready did not fire")
	}
	assert.Len(t, q.Consume(), 3)

	select {
	case <-q.Ready():
		t.Fatal("stale ready token left behind")
	default:
	}
}

// TestQueueConcurrentProducers verifies every pushed event is consumed exactly once
func TestQueueConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 200

	q := NewQueue(64)
	seen := make(map[int]int)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for len(seen) < producers*perProducer {
			<-q.Ready()
			for _, ev := range q.Consume() {
				seen[ev.Payload.(int)]++
			}
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				ev := Event{Type: EventDetectComplete, Payload: p*perProducer + i}
				// Back off while the consumer catches up
				for q.Push(ev) != nil {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer stalled with %d of %d events", len(seen), producers*perProducer)
	}

	for id, n := range seen {
		assert.Equal(t, 1, n, "event %d", id)
	}
}

// TestEventTypeString verifies names used in logs
func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "DetectComplete", EventDetectComplete.String())
	assert.Equal(t, "Unknown", EventType(999).String())
}
