package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/taskflow/internal/config"
	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/trigger"
)

// app is an opened database with the engine wired to it.
type app struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	redis  *redis.Client
}

// openApp opens the configured database and wires the engine: events go
// to the log, the store's event log and, when enabled, a Redis stream;
// recurrence triggers are registered as a handler.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	slog.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{cfg: cfg, store: st}
	sinks := event.MultiSink{
		event.LogSink{Level: slog.LevelDebug},
		event.StoreSink{Log: st},
	}
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		sinks = append(sinks, event.RedisSink{
			Client: a.redis,
			Stream: cfg.Redis.Stream,
			MaxLen: cfg.Redis.MaxLen,
		})
		slog.Debug("redis sink enabled", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}

	engOpts := []engine.Option{
		engine.WithSink(sinks),
		engine.WithMaxSteps(cfg.Dispatch.MaxSteps),
	}
	if opts.Clock != nil {
		engOpts = append(engOpts, engine.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDs))
	}
	a.engine = engine.New(st, engOpts...)
	a.engine.RegisterHandler(trigger.NewListener(a.engine, st))

	return a, nil
}

// Close releases the database and the Redis client.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Error("error closing redis client", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config, w io.Writer, verbose bool) {
	slog.SetDefault(cfg.Log.NewLogger(w, verbose))
}

// parseID parses a positional task or project id.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s id %q", kind, s))
	}
	return id, nil
}

// fail reports an operation error through the formatter and returns the
// matching exit error. Engine errors keep their code; anything else is a
// command error.
func fail(f *OutputFormatter, message string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	var engErr *engine.Error
	if errors.As(err, &engErr) {
		if f.Format == "json" {
			if ferr := f.Error(string(engErr.Code), err.Error(), nil); ferr != nil {
				return ferr
			}
		}
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}
