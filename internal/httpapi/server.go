// Package httpapi exposes the engine as a JSON API over echo.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// Engine is the subset of *engine.Engine the API serves.
type Engine interface {
	Board(ctx context.Context, projectID, swimlaneID int64) (engine.BoardView, error)
	Task(ctx context.Context, taskID int64) (task.Task, error)
	Create(ctx context.Context, d task.Draft) (int64, error)
	Move(ctx context.Context, req engine.MoveRequest) error
	Generate(ctx context.Context, taskID int64) (int64, bool, error)
	Close(ctx context.Context, taskID int64) error
	Open(ctx context.Context, taskID int64) error
	UpdateRecurrence(ctx context.Context, taskID int64, settings task.RecurrenceSettings) (task.Recurrence, error)
	Duplicate(ctx context.Context, taskID int64) (int64, error)
	DuplicateToProject(ctx context.Context, taskID, projectID int64) (int64, error)
	MoveToProject(ctx context.Context, taskID, projectID int64) error
}

// EventLog reads the persisted event log. Implemented by *store.Store.
type EventLog interface {
	Events(ctx context.Context, f store.EventFilter) ([]store.EventRecord, error)
}

// New builds an echo instance with recovery, request logging and all
// routes registered. events may be nil, in which case /events is not
// served.
func New(eng Engine, events EventLog) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("request", attrs...)
			return nil
		},
	}))

	Register(e, eng, events)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, eng Engine, events EventLog) {
	h := &handlers{eng: eng, events: events}

	e.GET("/healthz", healthz)
	e.GET("/projects/:project/board", h.getBoard)
	e.POST("/projects/:project/tasks", h.createTask)
	e.GET("/tasks/:task", h.getTask)
	e.POST("/tasks/:task/move", h.moveTask)
	e.POST("/tasks/:task/recur", h.recur)
	e.POST("/tasks/:task/close", h.closeTask)
	e.POST("/tasks/:task/open", h.openTask)
	e.PUT("/tasks/:task/recurrence", h.updateRecurrence)
	e.POST("/tasks/:task/duplicate", h.duplicate)
	e.POST("/tasks/:task/copy", h.copyToProject)
	e.POST("/tasks/:task/move-project", h.moveToProject)
	if events != nil {
		e.GET("/events", h.listEvents)
	}
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
