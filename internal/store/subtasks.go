package store

import (
	"context"
	"fmt"

	"github.com/roach88/taskflow/internal/task"
)

// AddSubtask appends a subtask to a task.
func (q queries) AddSubtask(ctx context.Context, st task.Subtask) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO subtasks (task_id, title, status, user_id, time_estimated, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM subtasks WHERE task_id = ?))
	`, st.TaskID, st.Title, st.Status, st.UserID, st.TimeEstimated, st.TaskID)
	if err != nil {
		return 0, fmt.Errorf("add subtask to task %d: %w", st.TaskID, err)
	}
	return res.LastInsertId()
}

// Subtasks returns a task's subtasks in order.
func (q queries) Subtasks(ctx context.Context, taskID int64) ([]task.Subtask, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, task_id, title, status, user_id, time_estimated, position
		FROM subtasks
		WHERE task_id = ?
		ORDER BY position ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}
	defer rows.Close()

	subtasks := []task.Subtask{}
	for rows.Next() {
		var st task.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Status, &st.UserID, &st.TimeEstimated, &st.Position); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtasks: %w", err)
	}
	return subtasks, nil
}

// DuplicateSubtasks copies every subtask of src onto dst. Copies start
// over as todo (status 0).
func (tx *Tx) DuplicateSubtasks(ctx context.Context, src, dst int64) error {
	_, err := tx.db.ExecContext(ctx, `
		INSERT INTO subtasks (task_id, title, status, user_id, time_estimated, position)
		SELECT ?, title, 0, user_id, time_estimated, position
		FROM subtasks
		WHERE task_id = ?
		ORDER BY position ASC, id ASC
	`, dst, src)
	if err != nil {
		return fmt.Errorf("duplicate subtasks %d -> %d: %w", src, dst, err)
	}
	return nil
}
