package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/task"
	"github.com/roach88/taskflow/internal/testutil"
)

// fixture is an engine over a fresh store with a recording sink and a
// board with columns A, B, C and swimlane S.
type fixture struct {
	engine *Engine
	board  *testutil.Board
	events *event.Recorder
	clock  *FixedClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s := testutil.OpenStore(t)
	rec := &event.Recorder{}
	clock := NewFixedClock(testutil.Epoch)

	opts = append([]Option{
		WithSink(rec),
		WithClock(clock),
		WithIDGenerator(NewSequenceGenerator("id")),
	}, opts...)

	return &fixture{
		engine: New(s, opts...),
		board:  testutil.NewBoard(t, s, "demo", []string{"A", "B", "C"}, "S"),
		events: rec,
		clock:  clock,
	}
}

func (f *fixture) move(taskID int64, column string, pos int, swimlane string) error {
	return f.engine.Move(context.Background(), MoveRequest{
		ProjectID:  f.board.Project,
		TaskID:     taskID,
		ColumnID:   f.board.Col(column),
		Position:   pos,
		SwimlaneID: f.board.Lane(swimlane),
	})
}

// addRecurring inserts an open task with a pending recurrence.
func (f *fixture) addRecurring(t *testing.T, title, column string, rec task.Recurrence) int64 {
	t.Helper()
	d := f.board.Draft(title, column, "")
	rec.Status = task.RecurrencePending
	d.Recurrence = rec
	id := f.board.AddDraft(d)
	require.NotZero(t, id)
	return id
}

func (f *fixture) projectTasks(t *testing.T) []task.Task {
	t.Helper()
	tasks, err := f.engine.Store().ProjectTasks(context.Background(), f.board.Project)
	require.NoError(t, err)
	return tasks
}
