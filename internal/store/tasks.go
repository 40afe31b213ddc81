package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/taskflow/internal/position"
	"github.com/roach88/taskflow/internal/task"
)

const taskColumns = `
	id, project_id, column_id, swimlane_id, position, is_active,
	title, description, owner_id, category_id, time_estimated, score, color_id,
	date_due, date_completed, date_creation, date_modification, date_moved,
	recurrence_status, recurrence_trigger, recurrence_factor, recurrence_timeframe, recurrence_basedate`

// Task retrieves a task by id. Returns ErrNotFound if it does not exist.
func (q queries) Task(ctx context.Context, id int64) (task.Task, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("read task %d: %w", id, err)
	}
	return t, nil
}

// Slot returns the active tasks of one (project, column, swimlane) slot
// ordered by position, ties broken by id.
func (q queries) Slot(ctx context.Context, projectID, columnID, swimlaneID int64) ([]task.Task, error) {
	return q.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ? AND column_id = ? AND swimlane_id = ? AND is_active = 1
		ORDER BY position ASC, id ASC
	`, projectID, columnID, swimlaneID)
}

// ProjectTasks returns every task of a project, open and closed, ordered by id.
func (q queries) ProjectTasks(ctx context.Context, projectID int64) ([]task.Task, error) {
	return q.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ?
		ORDER BY id ASC
	`, projectID)
}

// CountInColumn returns the number of active tasks in a column across all
// swimlanes.
func (q queries) CountInColumn(ctx context.Context, projectID, columnID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE project_id = ? AND column_id = ? AND is_active = 1
	`, projectID, columnID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count column %d: %w", columnID, err)
	}
	return n, nil
}

// CountInSlot returns the number of active tasks in one slot.
func (q queries) CountInSlot(ctx context.Context, projectID, columnID, swimlaneID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE project_id = ? AND column_id = ? AND swimlane_id = ? AND is_active = 1
	`, projectID, columnID, swimlaneID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slot (%d, %d): %w", columnID, swimlaneID, err)
	}
	return n, nil
}

// SwimlaneSnapshot loads the position board of one swimlane: the project's
// columns in order and every active task placed in that swimlane.
func (q queries) SwimlaneSnapshot(ctx context.Context, projectID, swimlaneID int64) (position.Board, error) {
	columns, err := q.ColumnIDs(ctx, projectID)
	if err != nil {
		return position.Board{}, err
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, column_id, position
		FROM tasks
		WHERE project_id = ? AND swimlane_id = ? AND is_active = 1
		ORDER BY column_id ASC, position ASC, id ASC
	`, projectID, swimlaneID)
	if err != nil {
		return position.Board{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	board := position.Board{Columns: columns}
	for rows.Next() {
		var e position.Entry
		if err := rows.Scan(&e.TaskID, &e.ColumnID, &e.Position); err != nil {
			return position.Board{}, fmt.Errorf("scan snapshot: %w", err)
		}
		board.Entries = append(board.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return position.Board{}, fmt.Errorf("iterate snapshot: %w", err)
	}

	return board, nil
}

// UpdateRecurrence replaces a task's recurrence configuration.
// Returns ErrNotFound if the task does not exist.
func (q queries) UpdateRecurrence(ctx context.Context, id int64, rec task.Recurrence, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET
			recurrence_status = ?, recurrence_trigger = ?, recurrence_factor = ?,
			recurrence_timeframe = ?, recurrence_basedate = ?, date_modification = ?
		WHERE id = ?
	`, int(rec.Status), int(rec.Trigger), rec.Factor, int(rec.Timeframe), int(rec.BaseDate), toUnix(now), id)
	if err != nil {
		return fmt.Errorf("update recurrence %d: %w", id, err)
	}
	return requireOne(res, fmt.Sprintf("update recurrence %d", id))
}

// MarkRecurrenceProcessed flips a pending task to processed. It reports
// false when the task was not pending, which means another generator
// already consumed it.
func (q queries) MarkRecurrenceProcessed(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET recurrence_status = ?, date_modification = ?
		WHERE id = ? AND recurrence_status = ?
	`, int(task.RecurrenceProcessed), toUnix(now), id, int(task.RecurrencePending))
	if err != nil {
		return false, fmt.Errorf("mark processed %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark processed %d: %w", id, err)
	}
	return n == 1, nil
}

// CloseTask deactivates an open task, stamps date_completed and clears its
// position. Reports false if the task was already closed.
func (q queries) CloseTask(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET is_active = 0, position = 0, date_completed = ?, date_modification = ?
		WHERE id = ? AND is_active = 1
	`, toUnix(now), toUnix(now), id)
	if err != nil {
		return false, fmt.Errorf("close task %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("close task %d", id))
}

// OpenTask reactivates a closed task at the end of its slot and clears
// date_completed. Reports false if the task was already open.
func (q queries) OpenTask(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET
			is_active = 1,
			date_completed = 0,
			date_modification = ?,
			position = (
				SELECT COUNT(*) + 1 FROM tasks AS other
				WHERE other.project_id = tasks.project_id
				  AND other.column_id = tasks.column_id
				  AND other.swimlane_id = tasks.swimlane_id
				  AND other.is_active = 1
			)
		WHERE id = ? AND is_active = 0
	`, toUnix(now), id)
	if err != nil {
		return false, fmt.Errorf("open task %d: %w", id, err)
	}
	return affected(res, fmt.Sprintf("open task %d", id))
}

// StampMoved records that a task changed column, swimlane or project.
func (q queries) StampMoved(ctx context.Context, id int64, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET date_moved = ?, date_modification = ? WHERE id = ?
	`, toUnix(now), toUnix(now), id)
	if err != nil {
		return fmt.Errorf("stamp moved %d: %w", id, err)
	}
	return requireOne(res, fmt.Sprintf("stamp moved %d", id))
}

// CreateTask inserts a task built from d. Active drafts are appended to the
// end of their slot, or placed at position 1 when d.AtHead is set, shifting
// the slot down by one. Inactive drafts get position 0.
func (tx *Tx) CreateTask(ctx context.Context, d task.Draft, now time.Time) (int64, error) {
	pos := 0
	if d.Active {
		if d.AtHead {
			_, err := tx.db.ExecContext(ctx, `
				UPDATE tasks SET position = position + 1
				WHERE project_id = ? AND column_id = ? AND swimlane_id = ? AND is_active = 1
			`, d.ProjectID, d.ColumnID, d.SwimlaneID)
			if err != nil {
				return 0, fmt.Errorf("create task: shift slot: %w", err)
			}
			pos = 1
		} else {
			n, err := tx.CountInSlot(ctx, d.ProjectID, d.ColumnID, d.SwimlaneID)
			if err != nil {
				return 0, fmt.Errorf("create task: %w", err)
			}
			pos = n + 1
		}
	}

	res, err := tx.db.ExecContext(ctx, `
		INSERT INTO tasks (
			project_id, column_id, swimlane_id, position, is_active,
			title, description, owner_id, category_id, time_estimated, score, color_id,
			date_due, date_completed, date_creation, date_modification,
			recurrence_status, recurrence_trigger, recurrence_factor, recurrence_timeframe, recurrence_basedate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ProjectID, d.ColumnID, d.SwimlaneID, pos, d.Active,
		d.Title, d.Description, d.OwnerID, d.CategoryID, d.TimeEstimated, d.Score, d.ColorID,
		toUnix(d.DateDue), toUnix(d.DateCompleted), toUnix(now), toUnix(now),
		int(d.Recurrence.Status), int(d.Recurrence.Trigger), d.Recurrence.Factor,
		int(d.Recurrence.Timeframe), int(d.Recurrence.BaseDate),
	)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

// CreateTask inserts a task in its own transaction. See Tx.CreateTask.
func (s *Store) CreateTask(ctx context.Context, d task.Draft, now time.Time) (int64, error) {
	var id int64
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.CreateTask(ctx, d, now)
		return err
	})
	return id, err
}

// CommitOrdering writes (position, column, swimlane) for every task of the
// ordering, positions being 1-based ranks. A write that matches no row
// fails the batch; the caller's InTx rolls everything back.
func (tx *Tx) CommitOrdering(ctx context.Context, ordering position.Ordering, swimlaneID int64) error {
	stmt, err := tx.tx.PrepareContext(ctx, `
		UPDATE tasks SET position = ?, column_id = ?, swimlane_id = ? WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("commit ordering: %w", err)
	}
	defer stmt.Close()

	for _, col := range ordering {
		for i, id := range col.TaskIDs {
			res, err := stmt.ExecContext(ctx, i+1, col.ColumnID, swimlaneID, id)
			if err != nil {
				return fmt.Errorf("commit ordering: task %d: %w", id, err)
			}
			if err := requireOne(res, fmt.Sprintf("commit ordering: task %d", id)); err != nil {
				return err
			}
		}
	}
	return nil
}

// MoveToProject reassigns a task to another project. Its category is reset
// since categories are project scoped; placement is written separately with
// CommitOrdering.
func (tx *Tx) MoveToProject(ctx context.Context, id, projectID int64, now time.Time) error {
	res, err := tx.db.ExecContext(ctx, `
		UPDATE tasks SET project_id = ?, category_id = 0, date_moved = ?, date_modification = ?
		WHERE id = ?
	`, projectID, toUnix(now), toUnix(now), id)
	if err != nil {
		return fmt.Errorf("move task %d to project %d: %w", id, projectID, err)
	}
	return requireOne(res, fmt.Sprintf("move task %d to project %d", id, projectID))
}

func (q queries) queryTasks(ctx context.Context, query string, args ...any) ([]task.Task, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		t                                        task.Task
		due, completed, created, modified, moved int64
		status, trigger, timeframe, basedate     int
	)
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.ColumnID, &t.SwimlaneID, &t.Position, &t.Active,
		&t.Title, &t.Description, &t.OwnerID, &t.CategoryID, &t.TimeEstimated, &t.Score, &t.ColorID,
		&due, &completed, &created, &modified, &moved,
		&status, &trigger, &t.Recurrence.Factor, &timeframe, &basedate,
	)
	if err != nil {
		return task.Task{}, err
	}

	t.DateDue = fromUnix(due)
	t.DateCompleted = fromUnix(completed)
	t.DateCreated = fromUnix(created)
	t.DateModified = fromUnix(modified)
	t.DateMoved = fromUnix(moved)
	t.Recurrence.Status = task.RecurrenceStatus(status)
	t.Recurrence.Trigger = task.Trigger(trigger)
	t.Recurrence.Timeframe = task.Timeframe(timeframe)
	t.Recurrence.BaseDate = task.BaseDate(basedate)
	return t, nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

func affected(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// requireOne fails unless exactly one row was written.
func requireOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
