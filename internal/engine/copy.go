package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/position"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// Duplicate copies a task's durable fields and subtasks into a new open
// task at the end of the same slot. Recurrence is not copied.
func (e *Engine) Duplicate(ctx context.Context, taskID int64) (newID int64, err error) {
	const op = "duplicate"
	ctx, span := startSpan(ctx, "taskflow.duplicate", taskAttr(taskID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var created task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		orig, err := tx.Task(ctx, taskID)
		if err != nil {
			return taskLookup(op, taskID, err)
		}

		created, err = copyTask(ctx, tx, orig, orig.Durable().Draft(), now)
		return classify(op, taskID, err)
	})
	if err != nil {
		return 0, classify(op, taskID, err)
	}

	slog.Debug("task duplicated", "task_id", taskID, "copy_id", created.ID)
	e.emit(ctx, event.Event{Name: event.Create, Task: created})
	return created.ID, nil
}

// DuplicateToProject copies a task into another project's first column.
// The swimlane is matched by name and falls back to the default swimlane;
// the category is reset since categories belong to a project.
func (e *Engine) DuplicateToProject(ctx context.Context, taskID, projectID int64) (newID int64, err error) {
	const op = "duplicate to project"
	ctx, span := startSpan(ctx, "taskflow.duplicate_to_project", taskAttr(taskID), projectAttr(projectID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var created task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		orig, err := tx.Task(ctx, taskID)
		if err != nil {
			return taskLookup(op, taskID, err)
		}

		column, lane, err := landing(ctx, tx, op, orig, projectID)
		if err != nil {
			return err
		}

		d := orig.Durable().Draft()
		d.ProjectID = projectID
		d.ColumnID = column
		d.SwimlaneID = lane
		d.CategoryID = 0

		created, err = copyTask(ctx, tx, orig, d, now)
		return classify(op, taskID, err)
	})
	if err != nil {
		return 0, classify(op, taskID, err)
	}

	slog.Debug("task copied to project", "task_id", taskID, "project_id", projectID, "copy_id", created.ID)
	e.emit(ctx, event.Event{Name: event.Create, Task: created})
	return created.ID, nil
}

// MoveToProject moves an open task to the end of another project's first
// column, with the same swimlane and category rules as DuplicateToProject,
// and repacks the slot it left.
func (e *Engine) MoveToProject(ctx context.Context, taskID, projectID int64) (err error) {
	const op = "move to project"
	ctx, span := startSpan(ctx, "taskflow.move_to_project", taskAttr(taskID), projectAttr(projectID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var ev event.Event

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		before, err := tx.Task(ctx, taskID)
		if err != nil {
			return taskLookup(op, taskID, err)
		}
		if before.ProjectID == projectID {
			return invalidPlacement(op, taskID, "task is already in project %d", projectID)
		}
		if !before.Active {
			return invalidPlacement(op, taskID, "task is closed")
		}

		column, lane, err := landing(ctx, tx, op, before, projectID)
		if err != nil {
			return err
		}

		// snapshots first: afterwards the task's row mixes both projects
		srcBoard, err := tx.SwimlaneSnapshot(ctx, before.ProjectID, before.SwimlaneID)
		if err != nil {
			return classify(op, taskID, err)
		}
		dstBoard, err := tx.SwimlaneSnapshot(ctx, projectID, lane)
		if err != nil {
			return classify(op, taskID, err)
		}

		dst, err := position.Calculate(dstBoard, taskID, column, len(dstBoard.Entries)+1)
		if err != nil {
			return classify(op, taskID, err)
		}
		src, err := position.Calculate(srcBoard.Without(taskID), 0, before.ColumnID, 1)
		if err != nil {
			return classify(op, taskID, err)
		}

		if err := tx.MoveToProject(ctx, taskID, projectID, now); err != nil {
			return classify(op, taskID, err)
		}
		if err := tx.CommitOrdering(ctx, dst, lane); err != nil {
			return classify(op, taskID, err)
		}
		if err := tx.CommitOrdering(ctx, src, before.SwimlaneID); err != nil {
			return classify(op, taskID, err)
		}

		after, err := tx.Task(ctx, taskID)
		if err != nil {
			return classify(op, taskID, err)
		}
		ev = event.Event{
			Name: event.MoveProject,
			Task: after,
			Move: &event.MoveDetails{
				SrcProjectID:  before.ProjectID,
				DstProjectID:  after.ProjectID,
				SrcColumnID:   before.ColumnID,
				DstColumnID:   after.ColumnID,
				SrcSwimlaneID: before.SwimlaneID,
				DstSwimlaneID: after.SwimlaneID,
				SrcPosition:   before.Position,
				Position:      after.Position,
			},
		}
		return nil
	})
	if err != nil {
		return classify(op, taskID, err)
	}

	slog.Debug("task moved to project", "task_id", taskID, "project_id", projectID)
	e.emit(ctx, ev)
	return nil
}

// landing resolves where a task arrives in another project: the first
// column, and the swimlane with the same name as its current one if there
// is one.
func landing(ctx context.Context, tx *store.Tx, op string, t task.Task, projectID int64) (column, lane int64, err error) {
	if _, err := tx.Project(ctx, projectID); err != nil {
		return 0, 0, projectLookup(op, projectID, err)
	}
	column, err = tx.FirstColumn(ctx, projectID)
	if err != nil {
		return 0, 0, projectLookup(op, projectID, err)
	}

	if t.SwimlaneID == task.DefaultSwimlane {
		return column, task.DefaultSwimlane, nil
	}
	current, err := tx.Swimlane(ctx, t.SwimlaneID)
	if err != nil {
		return 0, 0, classify(op, t.ID, err)
	}
	match, err := tx.SwimlaneByName(ctx, projectID, current.Name)
	if isNotFound(err) {
		return column, task.DefaultSwimlane, nil
	}
	if err != nil {
		return 0, 0, classify(op, t.ID, err)
	}
	return column, match.ID, nil
}

// copyTask inserts d and duplicates orig's subtasks onto it.
func copyTask(ctx context.Context, tx *store.Tx, orig task.Task, d task.Draft, now time.Time) (task.Task, error) {
	id, err := tx.CreateTask(ctx, d, now)
	if err != nil {
		return task.Task{}, err
	}
	if err := tx.DuplicateSubtasks(ctx, orig.ID, id); err != nil {
		return task.Task{}, err
	}
	return tx.Task(ctx, id)
}
