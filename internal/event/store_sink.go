package event

import (
	"context"
	"fmt"

	"github.com/roach88/taskflow/internal/store"
)

// EventLog is the append side of the store's event table.
type EventLog interface {
	AppendEvent(ctx context.Context, rec store.EventRecord) error
}

// StoreSink appends events to the store's event log with their canonical
// payload.
type StoreSink struct {
	Log EventLog
}

func (s StoreSink) Publish(ctx context.Context, e Event) error {
	payload, err := e.CanonicalPayload()
	if err != nil {
		return fmt.Errorf("store sink: %s: %w", e.Name, err)
	}

	return s.Log.AppendEvent(ctx, store.EventRecord{
		ID:            e.ID,
		Name:          string(e.Name),
		CorrelationID: e.CorrelationID,
		Seq:           e.Seq,
		TaskID:        e.Task.ID,
		OccurredAt:    e.OccurredAt,
		Payload:       string(payload),
	})
}
