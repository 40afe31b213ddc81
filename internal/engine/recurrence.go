package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/taskflow/internal/duedate"
	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// errAlreadyProcessed aborts a generation whose original was consumed by a
// concurrent generator between the read and the flip.
var errAlreadyProcessed = errors.New("recurrence already processed")

// Generate creates the successor of a pending recurring task.
//
// The successor copies the task's durable fields, lands at the head of the
// project's first column (same swimlane), is open, and inherits the
// recurrence configuration with status pending. Its due date is the base
// date shifted by factor x timeframe, the base being the task's due date
// when configured and set, otherwise now.
//
// Creation, subtask duplication and marking the original processed commit
// together. A task that is missing or not pending is not eligible:
// Generate returns (0, false, nil) and writes nothing.
func (e *Engine) Generate(ctx context.Context, taskID int64) (newID int64, generated bool, err error) {
	const op = "generate"
	ctx, span := startSpan(ctx, "taskflow.generate", taskAttr(taskID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var successor task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		orig, err := tx.Task(ctx, taskID)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return classify(op, taskID, err)
		}
		if !orig.Recurrence.Pending() {
			return nil
		}

		first, err := tx.FirstColumn(ctx, orig.ProjectID)
		if err != nil {
			return projectLookup(op, orig.ProjectID, err)
		}

		draft := orig.Durable().Draft()
		draft.DateDue = duedate.Compute(baseDate(orig, now), orig.Recurrence.Factor, orig.Recurrence.Timeframe)
		draft.ColumnID = first
		draft.Recurrence = orig.Recurrence.Successor()
		draft.AtHead = true

		id, err := tx.CreateTask(ctx, draft, now)
		if err != nil {
			return classify(op, taskID, err)
		}
		if err := tx.DuplicateSubtasks(ctx, orig.ID, id); err != nil {
			return classify(op, taskID, err)
		}

		flipped, err := tx.MarkRecurrenceProcessed(ctx, orig.ID, now)
		if err != nil {
			return classify(op, taskID, err)
		}
		if !flipped {
			return errAlreadyProcessed
		}

		successor, err = tx.Task(ctx, id)
		if err != nil {
			return classify(op, taskID, err)
		}
		return nil
	})
	if errors.Is(err, errAlreadyProcessed) {
		slog.Debug("recurrence lost race", "task_id", taskID)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(op, taskID, err)
	}
	if successor.ID == 0 {
		slog.Debug("task not eligible for recurrence", "task_id", taskID)
		return 0, false, nil
	}

	span.SetAttributes(attributeSuccessor(successor.ID))
	slog.Info("recurring task generated",
		"task_id", taskID,
		"successor_id", successor.ID,
		"date_due", successor.DateDue.Format(time.DateOnly),
	)
	e.emit(ctx, event.Event{Name: event.Create, Task: successor})
	return successor.ID, true, nil
}

// baseDate is the task's due date when the recurrence is based on it and
// it is set, otherwise now.
func baseDate(t task.Task, now time.Time) time.Time {
	if t.Recurrence.BaseDate == task.BaseDateDueDate && !t.DateDue.IsZero() {
		return t.DateDue
	}
	return now
}

// UpdateRecurrence applies recurrence settings to a task. Enabling fills
// in defaults for missing values; disabling clears the configuration.
// Returns the stored configuration.
func (e *Engine) UpdateRecurrence(ctx context.Context, taskID int64, settings task.RecurrenceSettings) (rec task.Recurrence, err error) {
	const op = "update recurrence"
	ctx, span := startSpan(ctx, "taskflow.update_recurrence", taskAttr(taskID))
	defer func() { endSpan(span, err) }()

	rec = settings.Normalize()
	now := e.clock.Now()
	var updated task.Task

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		if err := tx.UpdateRecurrence(ctx, taskID, rec, now); err != nil {
			if isNotFound(err) {
				return taskLookup(op, taskID, err)
			}
			return classify(op, taskID, err)
		}
		var err error
		updated, err = tx.Task(ctx, taskID)
		return err
	})
	if err != nil {
		return task.Recurrence{}, classify(op, taskID, err)
	}

	slog.Debug("recurrence updated",
		"task_id", taskID,
		"status", rec.Status.String(),
		"trigger", rec.Trigger.String(),
		"factor", rec.Factor,
		"timeframe", rec.Timeframe.String(),
	)
	e.emit(ctx, event.Event{Name: event.Update, Task: updated})
	return rec, nil
}
