package engine

import (
	"context"

	"github.com/roach88/taskflow/internal/position"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// BoardView is one swimlane of a project's board.
type BoardView struct {
	Project  task.Project `json:"project"`
	Swimlane int64        `json:"swimlane_id"`
	Columns  []ColumnView `json:"columns"`
}

// ColumnView lists the open tasks of a column in this swimlane. Total
// counts the column's open tasks across all swimlanes.
type ColumnView struct {
	Column task.Column `json:"column"`
	Tasks  []task.Task `json:"tasks"`
	Total  int         `json:"total"`
}

// Ordering returns the task ids of the view per column.
func (v BoardView) Ordering() position.Ordering {
	o := make(position.Ordering, len(v.Columns))
	for i, c := range v.Columns {
		ids := make([]int64, len(c.Tasks))
		for j, t := range c.Tasks {
			ids[j] = t.ID
		}
		o[i] = position.ColumnOrder{ColumnID: c.Column.ID, TaskIDs: ids}
	}
	return o
}

// Board reads one swimlane of a project. It runs in a read transaction so
// the view is consistent.
func (e *Engine) Board(ctx context.Context, projectID, swimlaneID int64) (view BoardView, err error) {
	const op = "board"
	ctx, span := startSpan(ctx, "taskflow.board", projectAttr(projectID))
	defer func() { endSpan(span, err) }()

	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		project, err := tx.Project(ctx, projectID)
		if err != nil {
			return projectLookup(op, projectID, err)
		}
		columns, err := tx.Columns(ctx, projectID)
		if err != nil {
			return err
		}

		view = BoardView{Project: project, Swimlane: swimlaneID, Columns: make([]ColumnView, 0, len(columns))}
		for _, c := range columns {
			tasks, err := tx.Slot(ctx, projectID, c.ID, swimlaneID)
			if err != nil {
				return err
			}
			total, err := tx.CountInColumn(ctx, projectID, c.ID)
			if err != nil {
				return err
			}
			view.Columns = append(view.Columns, ColumnView{Column: c, Tasks: tasks, Total: total})
		}
		return nil
	})
	if err != nil {
		return BoardView{}, classify(op, 0, err)
	}
	return view, nil
}

// Task reads a task.
func (e *Engine) Task(ctx context.Context, taskID int64) (task.Task, error) {
	t, err := e.store.Task(ctx, taskID)
	if err != nil {
		return task.Task{}, taskLookup("task", taskID, err)
	}
	return t, nil
}
