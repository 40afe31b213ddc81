package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/taskflow/internal/event"
)

type dispatchKey struct{}

// dispatch is the per-call-chain event queue. It travels in the context so
// that operations triggered by handlers append to it.
type dispatch struct {
	correlationID string
	queue         *eventQueue
	quota         *QuotaEnforcer
	seq           int64
}

// CorrelationID returns the correlation id of the dispatch running in ctx,
// or "" outside of one.
func CorrelationID(ctx context.Context) string {
	if d, ok := ctx.Value(dispatchKey{}).(*dispatch); ok {
		return d.correlationID
	}
	return ""
}

// emit queues events produced by a committed operation. The outermost
// operation of a call chain drains the queue before returning; nested ones
// only append.
func (e *Engine) emit(ctx context.Context, events ...event.Event) {
	if len(events) == 0 {
		return
	}

	if d, ok := ctx.Value(dispatchKey{}).(*dispatch); ok {
		for _, ev := range events {
			e.enqueue(d, ev)
		}
		return
	}

	d := &dispatch{
		correlationID: e.ids.Generate(),
		queue:         newEventQueue(),
		quota:         NewQuotaEnforcer(e.maxSteps),
	}
	for _, ev := range events {
		e.enqueue(d, ev)
	}
	e.drain(context.WithValue(ctx, dispatchKey{}, d), d)
}

func (e *Engine) enqueue(d *dispatch, ev event.Event) {
	d.seq++
	ev.ID = e.ids.Generate()
	ev.CorrelationID = d.correlationID
	ev.Seq = d.seq
	ev.OccurredAt = e.clock.Now()
	d.queue.Enqueue(ev)
}

// drain publishes queued events until the queue is empty or the quota is
// spent. Failures are logged and never propagated.
func (e *Engine) drain(ctx context.Context, d *dispatch) {
	for {
		ev, ok := d.queue.TryDequeue()
		if !ok {
			return
		}

		if err := d.quota.Check(d.correlationID); err != nil {
			slog.Error("dispatch quota exceeded, dropping events",
				"correlation_id", d.correlationID,
				"event", string(ev.Name),
				"task_id", ev.Task.ID,
				"dropped", d.queue.Len()+1,
				"error", err,
			)
			return
		}

		if err := e.sink.Publish(ctx, ev); err != nil {
			slog.Warn("event sink failed",
				"event", string(ev.Name),
				"task_id", ev.Task.ID,
				"correlation_id", d.correlationID,
				"error", err,
			)
		}

		for _, h := range e.handlers {
			if err := h.Handle(ctx, ev); err != nil {
				slog.Error("event handler failed",
					"event", string(ev.Name),
					"task_id", ev.Task.ID,
					"correlation_id", d.correlationID,
					"error", err,
				)
			}
		}
	}
}
