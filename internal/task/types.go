package task

import "time"

// Task is a reorderable, recurrable unit of work placed on a board.
type Task struct {
	ID         int64 `json:"id"`
	ProjectID  int64 `json:"project_id"`
	ColumnID   int64 `json:"column_id"`
	SwimlaneID int64 `json:"swimlane_id"`
	Position   int   `json:"position"`
	Active     bool  `json:"is_active"`

	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	OwnerID       int64  `json:"owner_id"`
	CategoryID    int64  `json:"category_id"`
	TimeEstimated int    `json:"time_estimated"`
	Score         int    `json:"score"`
	ColorID       string `json:"color_id"`

	DateDue       time.Time `json:"date_due,omitzero"`
	DateCompleted time.Time `json:"date_completed,omitzero"`
	DateCreated   time.Time `json:"date_creation,omitzero"`
	DateModified  time.Time `json:"date_modification,omitzero"`
	DateMoved     time.Time `json:"date_moved,omitzero"`

	Recurrence Recurrence `json:"recurrence"`
}

// Placement locates a task on the board.
type Placement struct {
	ColumnID   int64 `json:"column_id"`
	SwimlaneID int64 `json:"swimlane_id"`
	Position   int   `json:"position"`
}

// Placement returns the task's current (column, swimlane, position).
func (t Task) Placement() Placement {
	return Placement{ColumnID: t.ColumnID, SwimlaneID: t.SwimlaneID, Position: t.Position}
}

// Project groups columns, swimlanes and tasks.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Column is a board column. Columns are ordered by Position within a project.
type Column struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
}

// Swimlane is a horizontal board lane. The default swimlane has id 0 and is
// never stored.
type Swimlane struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// DefaultSwimlane is the implicit swimlane every project has.
const DefaultSwimlane int64 = 0

// Subtask belongs to a task. Subtasks only matter here because the creation
// path copies them onto duplicates and recurrence successors.
type Subtask struct {
	ID            int64  `json:"id"`
	TaskID        int64  `json:"task_id"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	UserID        int64  `json:"user_id"`
	TimeEstimated int    `json:"time_estimated"`
	Position      int    `json:"position"`
}
