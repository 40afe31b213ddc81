// Package testutil builds boards for tests and checks board invariants.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// Epoch is the default instant for fixed clocks in tests.
var Epoch = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// OpenStore opens a fresh store in a temp dir, closed on cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Board is a project created for a test, with its columns and swimlanes
// addressable by name.
type Board struct {
	t         testing.TB
	store     *store.Store
	Project   int64
	Columns   map[string]int64
	Swimlanes map[string]int64
}

// NewBoard creates a project with the given columns (left to right) and
// swimlanes. The default swimlane is always available under "".
func NewBoard(t testing.TB, s *store.Store, name string, columns []string, swimlanes ...string) *Board {
	t.Helper()
	ctx := context.Background()

	project, err := s.CreateProject(ctx, name)
	require.NoError(t, err)

	b := &Board{
		t:         t,
		store:     s,
		Project:   project,
		Columns:   make(map[string]int64),
		Swimlanes: map[string]int64{"": task.DefaultSwimlane},
	}
	for _, c := range columns {
		id, err := s.CreateColumn(ctx, project, c)
		require.NoError(t, err)
		b.Columns[c] = id
	}
	for _, l := range swimlanes {
		id, err := s.CreateSwimlane(ctx, project, l)
		require.NoError(t, err)
		b.Swimlanes[l] = id
	}
	return b
}

// Col returns a column id by title.
func (b *Board) Col(title string) int64 {
	b.t.Helper()
	id, ok := b.Columns[title]
	require.True(b.t, ok, "unknown column %q", title)
	return id
}

// Lane returns a swimlane id by name; "" is the default swimlane.
func (b *Board) Lane(name string) int64 {
	b.t.Helper()
	id, ok := b.Swimlanes[name]
	require.True(b.t, ok, "unknown swimlane %q", name)
	return id
}

// Draft starts an open draft in (column, swimlane).
func (b *Board) Draft(title, column, swimlane string) task.Draft {
	return task.Durable{
		Title:      title,
		ProjectID:  b.Project,
		ColumnID:   b.Col(column),
		SwimlaneID: b.Lane(swimlane),
	}.Draft()
}

// AddTask appends an open task to (column, swimlane) directly through the
// store, bypassing event dispatch.
func (b *Board) AddTask(title, column, swimlane string) int64 {
	b.t.Helper()
	return b.AddDraft(b.Draft(title, column, swimlane))
}

// AddDraft inserts d directly through the store.
func (b *Board) AddDraft(d task.Draft) int64 {
	b.t.Helper()
	id, err := b.store.CreateTask(context.Background(), d, Epoch)
	require.NoError(b.t, err)
	return id
}

// Slot returns the ids of the open tasks of (column, swimlane) in
// position order.
func (b *Board) Slot(column, swimlane string) []int64 {
	b.t.Helper()
	tasks, err := b.store.Slot(context.Background(), b.Project, b.Col(column), b.Lane(swimlane))
	require.NoError(b.t, err)
	ids := []int64{}
	for _, tk := range tasks {
		ids = append(ids, tk.ID)
	}
	return ids
}

// Task reads a task.
func (b *Board) Task(id int64) task.Task {
	b.t.Helper()
	tk, err := b.store.Task(context.Background(), id)
	require.NoError(b.t, err)
	return tk
}

// RequireContiguous fails the test unless every slot of the project holds
// positions 1..N and every open task sits in exactly one slot.
func (b *Board) RequireContiguous() {
	b.t.Helper()
	require.NoError(b.t, CheckContiguous(context.Background(), b.store, b.Project))
}

// CheckContiguous verifies that the open tasks of every (column, swimlane)
// of a project hold positions 1..N without gaps or duplicates.
func CheckContiguous(ctx context.Context, s *store.Store, projectID int64) error {
	tasks, err := s.ProjectTasks(ctx, projectID)
	if err != nil {
		return err
	}

	type slot struct{ column, swimlane int64 }
	slots := make(map[slot][]int)
	for _, tk := range tasks {
		if !tk.Active {
			continue
		}
		k := slot{tk.ColumnID, tk.SwimlaneID}
		slots[k] = append(slots[k], tk.Position)
	}

	for k, positions := range slots {
		seen := make(map[int]bool, len(positions))
		for _, p := range positions {
			if p < 1 || p > len(positions) || seen[p] {
				return fmt.Errorf("slot (column %d, swimlane %d) has positions %v", k.column, k.swimlane, positions)
			}
			seen[p] = true
		}
	}
	return nil
}
