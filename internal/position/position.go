// Package position computes gap-free task orderings for one swimlane of a
// board. It is pure: callers load a Board snapshot, compute an Ordering and
// hand it to the store for persistence.
package position

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/taskflow/internal/task"
)

// ErrInvalidPlacement is returned for a position below 1 or a column that is
// not part of the board.
var ErrInvalidPlacement = errors.New("invalid placement")

// Entry is one active task on the board.
type Entry struct {
	TaskID   int64 `json:"task_id"`
	ColumnID int64 `json:"column_id"`
	Position int   `json:"position"`
}

// Board is a snapshot of one swimlane: the project's columns in display
// order and the active tasks placed in them.
type Board struct {
	Columns []int64 `json:"columns"`
	Entries []Entry `json:"entries"`
}

// Without returns a copy of the board with taskID removed.
func (b Board) Without(taskID int64) Board {
	out := Board{Columns: slices.Clone(b.Columns)}
	for _, e := range b.Entries {
		if e.TaskID != taskID {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// HasColumn reports whether columnID is on the board.
func (b Board) HasColumn(columnID int64) bool {
	return slices.Contains(b.Columns, columnID)
}

// ColumnOrder is the ordered task list of one column. A task's position is
// its index + 1.
type ColumnOrder struct {
	ColumnID int64   `json:"column_id"`
	TaskIDs  []int64 `json:"task_ids"`
}

// Ordering is the complete layout of a swimlane, one entry per board column
// in board order.
type Ordering []ColumnOrder

// Column returns the task ids of columnID, or nil if the column is absent.
func (o Ordering) Column(columnID int64) []int64 {
	for _, c := range o {
		if c.ColumnID == columnID {
			return c.TaskIDs
		}
	}
	return nil
}

// Positions flattens the ordering to task id -> placement. The swimlane is
// left at zero; orderings do not know which swimlane they describe.
func (o Ordering) Positions() map[int64]task.Placement {
	out := make(map[int64]task.Placement)
	for _, c := range o {
		for i, id := range c.TaskIDs {
			out[id] = task.Placement{ColumnID: c.ColumnID, Position: i + 1}
		}
	}
	return out
}

// Calculate returns the ordering of board after placing taskID at position
// pos of columnID.
//
// Every column's existing entries are sorted by position, ties broken by id,
// with taskID removed wherever it was. taskID is then inserted at index pos-1
// of the target column; a position past the end appends. A taskID of 0
// inserts nothing, which repacks the board into contiguous 1..N positions.
func Calculate(board Board, taskID, columnID int64, pos int) (Ordering, error) {
	if pos < 1 {
		return nil, fmt.Errorf("%w: position %d", ErrInvalidPlacement, pos)
	}
	if !board.HasColumn(columnID) {
		return nil, fmt.Errorf("%w: column %d not on board", ErrInvalidPlacement, columnID)
	}

	byColumn := make(map[int64][]Entry, len(board.Columns))
	for _, e := range board.Entries {
		if taskID != 0 && e.TaskID == taskID {
			continue
		}
		byColumn[e.ColumnID] = append(byColumn[e.ColumnID], e)
	}

	ordering := make(Ordering, 0, len(board.Columns))
	for _, col := range board.Columns {
		entries := byColumn[col]
		slices.SortFunc(entries, func(a, b Entry) int {
			return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.TaskID, b.TaskID))
		})

		ids := make([]int64, 0, len(entries)+1)
		for _, e := range entries {
			ids = append(ids, e.TaskID)
		}

		if col == columnID && taskID != 0 {
			idx := min(pos-1, len(ids))
			ids = slices.Insert(ids, idx, taskID)
		}

		ordering = append(ordering, ColumnOrder{ColumnID: col, TaskIDs: ids})
	}

	return ordering, nil
}
