package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/position"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// MoveRequest places a task at Position of (ColumnID, SwimlaneID).
// ProjectID may be zero, in which case the task's own project is used.
type MoveRequest struct {
	ProjectID  int64
	TaskID     int64
	ColumnID   int64
	Position   int
	SwimlaneID int64

	// SkipEvents suppresses the move event.
	SkipEvents bool
}

// Move relocates a task and repacks every slot it touches.
//
// The destination swimlane is recomputed with the task inserted at the
// requested position (past the end appends). When the swimlane changes, the
// column the task left in its old swimlane is repacked too. Both orderings
// commit in one transaction.
//
// At most one event is emitted, by priority: task.move.swimlane, then
// task.move.column, then task.move.position. A move that changes nothing
// emits nothing.
func (e *Engine) Move(ctx context.Context, req MoveRequest) (err error) {
	const op = "move"
	ctx, span := startSpan(ctx, "taskflow.move", taskAttr(req.TaskID), projectAttr(req.ProjectID))
	defer func() { endSpan(span, err) }()

	now := e.clock.Now()
	var ev *event.Event

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		before, err := tx.Task(ctx, req.TaskID)
		if err != nil {
			return taskLookup(op, req.TaskID, err)
		}

		projectID := req.ProjectID
		if projectID == 0 {
			projectID = before.ProjectID
		}
		if projectID != before.ProjectID {
			return invalidPlacement(op, req.TaskID, "task belongs to project %d, not %d", before.ProjectID, projectID)
		}
		if !before.Active {
			return invalidPlacement(op, req.TaskID, "task is closed")
		}
		if err := checkSwimlane(ctx, tx, op, req.TaskID, projectID, req.SwimlaneID); err != nil {
			return err
		}

		board, err := tx.SwimlaneSnapshot(ctx, projectID, req.SwimlaneID)
		if err != nil {
			return classify(op, req.TaskID, err)
		}
		dst, err := position.Calculate(board, req.TaskID, req.ColumnID, req.Position)
		if err != nil {
			return classify(op, req.TaskID, err)
		}

		// the 0/1 repair pass over the column the task vacated
		var src position.Ordering
		if before.SwimlaneID != req.SwimlaneID {
			srcBoard, err := tx.SwimlaneSnapshot(ctx, projectID, before.SwimlaneID)
			if err != nil {
				return classify(op, req.TaskID, err)
			}
			src, err = position.Calculate(srcBoard.Without(req.TaskID), 0, before.ColumnID, 1)
			if err != nil {
				return classify(op, req.TaskID, err)
			}
		}

		if err := tx.CommitOrdering(ctx, dst, req.SwimlaneID); err != nil {
			return classify(op, req.TaskID, err)
		}
		if src != nil {
			if err := tx.CommitOrdering(ctx, src, before.SwimlaneID); err != nil {
				return classify(op, req.TaskID, err)
			}
		}

		if before.ColumnID != req.ColumnID || before.SwimlaneID != req.SwimlaneID {
			if err := tx.StampMoved(ctx, req.TaskID, now); err != nil {
				return classify(op, req.TaskID, err)
			}
		}

		if req.SkipEvents {
			return nil
		}
		after, err := tx.Task(ctx, req.TaskID)
		if err != nil {
			return classify(op, req.TaskID, err)
		}
		ev = moveEvent(before, after)
		return nil
	})
	if err != nil {
		err = classify(op, req.TaskID, err)
		slog.Debug("move rejected", "task_id", req.TaskID, "column_id", req.ColumnID, "position", req.Position, "error", err)
		return err
	}

	slog.Debug("task moved",
		"task_id", req.TaskID,
		"column_id", req.ColumnID,
		"swimlane_id", req.SwimlaneID,
		"position", req.Position,
	)
	if ev != nil {
		e.emit(ctx, *ev)
	}
	return nil
}

// moveEvent picks the single event describing the most significant change
// between two snapshots of a task, or nil if its placement did not change.
func moveEvent(before, after task.Task) *event.Event {
	var name event.Name
	switch {
	case before.SwimlaneID != after.SwimlaneID:
		name = event.MoveSwimlane
	case before.ColumnID != after.ColumnID:
		name = event.MoveColumn
	case before.Position != after.Position:
		name = event.MovePosition
	default:
		return nil
	}

	return &event.Event{
		Name: name,
		Task: after,
		Move: &event.MoveDetails{
			SrcColumnID:   before.ColumnID,
			DstColumnID:   after.ColumnID,
			SrcSwimlaneID: before.SwimlaneID,
			DstSwimlaneID: after.SwimlaneID,
			SrcPosition:   before.Position,
			Position:      after.Position,
		},
	}
}

// checkSwimlane rejects a swimlane that is neither the default one nor one
// of the project's.
func checkSwimlane(ctx context.Context, tx *store.Tx, op string, taskID, projectID, swimlaneID int64) error {
	if swimlaneID == task.DefaultSwimlane {
		return nil
	}
	lane, err := tx.Swimlane(ctx, swimlaneID)
	if err != nil {
		if isNotFound(err) {
			return invalidPlacement(op, taskID, "swimlane %d does not exist", swimlaneID)
		}
		return classify(op, taskID, err)
	}
	if lane.ProjectID != projectID {
		return invalidPlacement(op, taskID, "swimlane %d is not in project %d", swimlaneID, projectID)
	}
	return nil
}
