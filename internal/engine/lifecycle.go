package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/position"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// Create inserts a task from a draft. A zero ColumnID means the project's
// first column. Open drafts are appended to their slot unless AtHead is set.
func (e *Engine) Create(ctx context.Context, d task.Draft) (id int64, err error) {
	const op = "create"
	ctx, span := startSpan(ctx, "taskflow.create", projectAttr(d.ProjectID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var created task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		columns, err := tx.ColumnIDs(ctx, d.ProjectID)
		if err != nil {
			return classify(op, 0, err)
		}
		if len(columns) == 0 {
			return projectLookup(op, d.ProjectID, store.ErrNotFound)
		}
		if d.ColumnID == 0 {
			d.ColumnID = columns[0]
		}
		if !slices.Contains(columns, d.ColumnID) {
			return invalidPlacement(op, 0, "column %d is not in project %d", d.ColumnID, d.ProjectID)
		}
		if err := checkSwimlane(ctx, tx, op, 0, d.ProjectID, d.SwimlaneID); err != nil {
			return err
		}

		id, err := tx.CreateTask(ctx, d, now)
		if err != nil {
			return classify(op, 0, err)
		}
		created, err = tx.Task(ctx, id)
		return err
	})
	if err != nil {
		return 0, classify(op, 0, err)
	}

	slog.Debug("task created", "task_id", created.ID, "project_id", created.ProjectID, "column_id", created.ColumnID)
	e.emit(ctx, event.Event{Name: event.Create, Task: created})
	return created.ID, nil
}

// Close marks a task done and repacks the slot it leaves. Closing a closed
// task is a no-op without event.
func (e *Engine) Close(ctx context.Context, taskID int64) (err error) {
	const op = "close"
	ctx, span := startSpan(ctx, "taskflow.close", taskAttr(taskID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var closed *task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		t, err := tx.Task(ctx, taskID)
		if err != nil {
			return taskLookup(op, taskID, err)
		}

		changed, err := tx.CloseTask(ctx, taskID, now)
		if err != nil {
			return classify(op, taskID, err)
		}
		if !changed {
			return nil
		}

		board, err := tx.SwimlaneSnapshot(ctx, t.ProjectID, t.SwimlaneID)
		if err != nil {
			return classify(op, taskID, err)
		}
		repack, err := position.Calculate(board, 0, t.ColumnID, 1)
		if err != nil {
			return classify(op, taskID, err)
		}
		if err := tx.CommitOrdering(ctx, repack, t.SwimlaneID); err != nil {
			return classify(op, taskID, err)
		}

		after, err := tx.Task(ctx, taskID)
		if err != nil {
			return classify(op, taskID, err)
		}
		closed = &after
		return nil
	})
	if err != nil {
		return classify(op, taskID, err)
	}

	if closed != nil {
		slog.Debug("task closed", "task_id", taskID)
		e.emit(ctx, event.Event{Name: event.Close, Task: *closed})
	}
	return nil
}

// Open reopens a closed task at the end of its slot. Opening an open task
// is a no-op without event.
func (e *Engine) Open(ctx context.Context, taskID int64) (err error) {
	const op = "open"
	ctx, span := startSpan(ctx, "taskflow.open", taskAttr(taskID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var opened *task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.Task(ctx, taskID); err != nil {
			return taskLookup(op, taskID, err)
		}

		changed, err := tx.OpenTask(ctx, taskID, now)
		if err != nil {
			return classify(op, taskID, err)
		}
		if !changed {
			return nil
		}

		after, err := tx.Task(ctx, taskID)
		if err != nil {
			return classify(op, taskID, err)
		}
		opened = &after
		return nil
	})
	if err != nil {
		return classify(op, taskID, err)
	}

	if opened != nil {
		slog.Debug("task opened", "task_id", taskID, "position", opened.Position)
		e.emit(ctx, event.Event{Name: event.Open, Task: *opened})
	}
	return nil
}
