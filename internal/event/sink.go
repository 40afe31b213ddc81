package event

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Sink receives dispatched events. Publish is best-effort: the engine logs
// a failure and moves on.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// MultiSink publishes to every sink in order and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	Logger *slog.Logger
	Level  slog.Level
}

func (s LogSink) Publish(ctx context.Context, e Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"event", string(e.Name),
		"task_id", e.Task.ID,
		"project_id", e.Task.ProjectID,
		"correlation_id", e.CorrelationID,
		"seq", e.Seq,
	}
	if e.Move != nil {
		attrs = append(attrs,
			"src_column_id", e.Move.SrcColumnID,
			"dst_column_id", e.Move.DstColumnID,
			"swimlane_id", e.Move.DstSwimlaneID,
			"position", e.Move.Position,
		)
	}
	logger.Log(ctx, s.Level, "task event", attrs...)
	return nil
}

// Recorder keeps every published event in memory.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Names returns the recorded event names in publish order.
func (r *Recorder) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]Name, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
