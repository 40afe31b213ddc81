package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/taskflow/internal/task"
)

// CreateProject inserts a project and returns its id.
func (q queries) CreateProject(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO projects (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create project %q: %w", name, err)
	}
	return res.LastInsertId()
}

// Project retrieves a project by id. Returns ErrNotFound if it does not exist.
func (q queries) Project(ctx context.Context, id int64) (task.Project, error) {
	var p task.Project
	err := q.db.QueryRowContext(ctx, `SELECT id, name FROM projects WHERE id = ?`, id).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return task.Project{}, fmt.Errorf("read project %d: %w", id, err)
	}
	return p, nil
}

// ProjectByName retrieves a project by its unique name.
func (q queries) ProjectByName(ctx context.Context, name string) (task.Project, error) {
	var p task.Project
	err := q.db.QueryRowContext(ctx, `SELECT id, name FROM projects WHERE name = ?`, name).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return task.Project{}, fmt.Errorf("read project %q: %w", name, err)
	}
	return p, nil
}

// CreateColumn appends a column to the right of the project's board.
func (q queries) CreateColumn(ctx context.Context, projectID int64, title string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO columns (project_id, title, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM columns WHERE project_id = ?))
	`, projectID, title, projectID)
	if err != nil {
		return 0, fmt.Errorf("create column %q: %w", title, err)
	}
	return res.LastInsertId()
}

// Columns returns the project's columns in board order.
func (q queries) Columns(ctx context.Context, projectID int64) ([]task.Column, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, project_id, title, position
		FROM columns
		WHERE project_id = ?
		ORDER BY position ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := []task.Column{}
	for rows.Next() {
		var c task.Column
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Position); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// ColumnIDs returns the ids of the project's columns in board order.
func (q queries) ColumnIDs(ctx context.Context, projectID int64) ([]int64, error) {
	columns, err := q.Columns(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(columns))
	for i, c := range columns {
		ids[i] = c.ID
	}
	return ids, nil
}

// FirstColumn returns the leftmost column of the project.
// Returns ErrNotFound if the project has no columns.
func (q queries) FirstColumn(ctx context.Context, projectID int64) (int64, error) {
	return q.edgeColumn(ctx, projectID, "ASC")
}

// LastColumn returns the rightmost column of the project.
// Returns ErrNotFound if the project has no columns.
func (q queries) LastColumn(ctx context.Context, projectID int64) (int64, error) {
	return q.edgeColumn(ctx, projectID, "DESC")
}

func (q queries) edgeColumn(ctx context.Context, projectID int64, dir string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `
		SELECT id FROM columns WHERE project_id = ?
		ORDER BY position `+dir+`, id `+dir+`
		LIMIT 1
	`, projectID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("columns of project %d: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read columns of project %d: %w", projectID, err)
	}
	return id, nil
}

// CreateSwimlane appends a swimlane below the project's existing ones.
func (q queries) CreateSwimlane(ctx context.Context, projectID int64, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO swimlanes (project_id, name, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM swimlanes WHERE project_id = ?))
	`, projectID, name, projectID)
	if err != nil {
		return 0, fmt.Errorf("create swimlane %q: %w", name, err)
	}
	return res.LastInsertId()
}

// Swimlanes returns the project's stored swimlanes in order. The implicit
// default swimlane is not included.
func (q queries) Swimlanes(ctx context.Context, projectID int64) ([]task.Swimlane, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, project_id, name, position
		FROM swimlanes
		WHERE project_id = ?
		ORDER BY position ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query swimlanes: %w", err)
	}
	defer rows.Close()

	lanes := []task.Swimlane{}
	for rows.Next() {
		var l task.Swimlane
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Position); err != nil {
			return nil, fmt.Errorf("scan swimlane: %w", err)
		}
		lanes = append(lanes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swimlanes: %w", err)
	}
	return lanes, nil
}

// Swimlane retrieves a stored swimlane by id.
func (q queries) Swimlane(ctx context.Context, id int64) (task.Swimlane, error) {
	var l task.Swimlane
	err := q.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, position FROM swimlanes WHERE id = ?
	`, id).Scan(&l.ID, &l.ProjectID, &l.Name, &l.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Swimlane{}, fmt.Errorf("swimlane %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return task.Swimlane{}, fmt.Errorf("read swimlane %d: %w", id, err)
	}
	return l, nil
}

// SwimlaneByName looks up a project's swimlane by name.
func (q queries) SwimlaneByName(ctx context.Context, projectID int64, name string) (task.Swimlane, error) {
	var l task.Swimlane
	err := q.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, position FROM swimlanes WHERE project_id = ? AND name = ?
	`, projectID, name).Scan(&l.ID, &l.ProjectID, &l.Name, &l.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Swimlane{}, fmt.Errorf("swimlane %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return task.Swimlane{}, fmt.Errorf("read swimlane %q: %w", name, err)
	}
	return l, nil
}
