package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/task"
)

func queued(id int64) event.Event {
	return event.Event{Name: event.Create, Task: task.Task{ID: id}}
}

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	for i := int64(1); i <= 3; i++ {
		q.Enqueue(queued(i))
	}
	assert.Equal(t, 3, q.Len())

	for want := int64(1); want <= 3; want++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Task.ID)
	}
	assert.Equal(t, 0, q.Len())
}

func TestEventQueue_TryDequeue_Empty(t *testing.T) {
	q := newEventQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_EnqueueWhileDraining(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(queued(1))

	var seen []int64
	for {
		ev, ok := q.TryDequeue()
		if !ok {
			break
		}
		seen = append(seen, ev.Task.ID)
		if ev.Task.ID < 4 {
			q.Enqueue(queued(ev.Task.ID + 1))
		}
	}

	assert.Equal(t, []int64{1, 2, 3, 4}, seen)
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()
	const writers, each = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Enqueue(queued(int64(i)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*each, q.Len())
}
