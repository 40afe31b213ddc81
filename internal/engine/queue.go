package engine

import (
	"sync"

	"github.com/roach88/taskflow/internal/event"
)

// eventQueue is a thread-safe FIFO queue of events awaiting dispatch.
//
// The queue is unbounded so that trigger chains can append successor events
// while the queue is being drained; the step quota bounds the total.
type eventQueue struct {
	mu     sync.Mutex
	events []event.Event
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event.Event, 0, 8),
	}
}

// Enqueue adds an event to the back of the queue.
func (q *eventQueue) Enqueue(e event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
}

// TryDequeue removes and returns the front event.
// Returns (event.Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event.Event{}, false
	}

	e := q.events[0]

	// Clear the slot so the backing array does not pin the task record
	q.events[0] = event.Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
