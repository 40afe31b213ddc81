package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/store"
)

// DefaultMaxSteps is the default maximum number of events per dispatch.
// This bounds runaway recurrence chains.
const DefaultMaxSteps = 1000

// Handler reacts to dispatched events. Handlers run after the sink, in
// registration order, and may call back into the engine.
type Handler interface {
	Handle(ctx context.Context, e event.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e event.Event) error

func (f HandlerFunc) Handle(ctx context.Context, e event.Event) error { return f(ctx, e) }

// Engine orders and recurs tasks on top of a store.
//
// Thread-safety model:
//   - Operations are safe from any goroutine; the store serializes their
//     transactions
//   - RegisterHandler must be called before the engine is shared
type Engine struct {
	store    *store.Store
	clock    Clock
	ids      IDGenerator
	sink     event.Sink
	handlers []Handler
	maxSteps int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithMaxSteps sets the maximum number of events dispatched per top-level
// operation.
//
// Default: 1000 steps (DefaultMaxSteps)
func WithMaxSteps(maxSteps int) Option {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithClock sets the wall clock. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the generator for event and correlation ids.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithSink sets where dispatched events are published. Default: LogSink
// at debug level.
func WithSink(s event.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// New creates an Engine over the given store.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		clock:    SystemClock{},
		ids:      UUIDv7Generator{},
		sink:     event.LogSink{Level: slog.LevelDebug},
		maxSteps: DefaultMaxSteps,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegisterHandler appends a handler to the dispatch chain.
func (e *Engine) RegisterHandler(h Handler) {
	e.handlers = append(e.handlers, h)
}

// Store returns the engine's store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}
