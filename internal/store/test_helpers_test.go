package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/task"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testBoard is a project with columns A, B, C and one swimlane S.
type testBoard struct {
	project  int64
	a, b, c  int64
	swimlane int64
}

func createTestBoard(t *testing.T, s *Store) testBoard {
	t.Helper()
	ctx := context.Background()

	var (
		b   testBoard
		err error
	)
	b.project, err = s.CreateProject(ctx, "demo")
	require.NoError(t, err)
	b.a, err = s.CreateColumn(ctx, b.project, "A")
	require.NoError(t, err)
	b.b, err = s.CreateColumn(ctx, b.project, "B")
	require.NoError(t, err)
	b.c, err = s.CreateColumn(ctx, b.project, "C")
	require.NoError(t, err)
	b.swimlane, err = s.CreateSwimlane(ctx, b.project, "S")
	require.NoError(t, err)
	return b
}

// createTestTask appends an open task to a slot.
func createTestTask(t *testing.T, s *Store, project, column, swimlane int64, title string) int64 {
	t.Helper()
	d := task.Durable{Title: title, ProjectID: project, ColumnID: column, SwimlaneID: swimlane}.Draft()
	id, err := s.CreateTask(context.Background(), d, testNow)
	require.NoError(t, err)
	return id
}

// slotIDs returns the task ids of a slot in position order.
func slotIDs(t *testing.T, s *Store, project, column, swimlane int64) []int64 {
	t.Helper()
	tasks, err := s.Slot(context.Background(), project, column, swimlane)
	require.NoError(t, err)
	ids := []int64{}
	for i, tk := range tasks {
		require.Equal(t, i+1, tk.Position, "slot (%d, %d) not contiguous", column, swimlane)
		ids = append(ids, tk.ID)
	}
	return ids
}
