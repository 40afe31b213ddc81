package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/task"
	"github.com/roach88/taskflow/internal/testutil"
)

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.board.AddTask("existing", "B", "S")

	id, err := f.engine.Create(ctx, f.board.Draft("new", "B", "S"))
	require.NoError(t, err)

	assert.Equal(t, []int64{existing, id}, f.board.Slot("B", "S"))
	assert.Equal(t, []event.Name{event.Create}, f.events.Names())
	assert.True(t, f.board.Task(id).DateCreated.Equal(testutil.Epoch))
}

func TestCreate_DefaultsToFirstColumn(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.Create(context.Background(), task.Durable{Title: "inbox", ProjectID: f.board.Project}.Draft())
	require.NoError(t, err)

	assert.Equal(t, f.board.Col("A"), f.board.Task(id).ColumnID)
}

func TestCreate_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, task.Durable{Title: "x", ProjectID: f.board.Project, ColumnID: 9999}.Draft())
	assert.True(t, IsInvalidPlacement(err))

	_, err = f.engine.Create(ctx, task.Durable{Title: "x", ProjectID: 9999}.Draft())
	assert.True(t, IsProjectNotFound(err))

	assert.Empty(t, f.events.Events())
}

func TestCloseAndOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.board
	t1 := b.AddTask("one", "A", "")
	t2 := b.AddTask("two", "A", "")
	t3 := b.AddTask("three", "A", "")

	require.NoError(t, f.engine.Close(ctx, t2))

	assert.Equal(t, []int64{t1, t3}, b.Slot("A", ""))
	b.RequireContiguous()
	closed := b.Task(t2)
	assert.False(t, closed.Active)
	assert.True(t, closed.DateCompleted.Equal(testutil.Epoch))

	// closing twice is a no-op
	require.NoError(t, f.engine.Close(ctx, t2))

	require.NoError(t, f.engine.Open(ctx, t2))
	assert.Equal(t, []int64{t1, t3, t2}, b.Slot("A", ""))
	assert.True(t, b.Task(t2).DateCompleted.IsZero())
	b.RequireContiguous()

	require.NoError(t, f.engine.Open(ctx, t2))

	assert.Equal(t, []event.Name{event.Close, event.Open}, f.events.Names())
}

func TestCloseAndOpen_TaskNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, IsTaskNotFound(f.engine.Close(ctx, 99)))
	assert.True(t, IsTaskNotFound(f.engine.Open(ctx, 99)))
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.board

	d := b.Draft("original", "B", "S")
	d.Description = "body"
	d.OwnerID = 3
	d.CategoryID = 8
	d.Recurrence = task.Recurrence{Status: task.RecurrencePending, Factor: 1}
	orig := b.AddDraft(d)
	_, err := f.engine.Store().AddSubtask(ctx, task.Subtask{TaskID: orig, Title: "step"})
	require.NoError(t, err)

	copyID, err := f.engine.Duplicate(ctx, orig)
	require.NoError(t, err)

	c := b.Task(copyID)
	assert.Equal(t, b.Task(orig).Durable(), c.Durable())
	assert.Equal(t, task.Recurrence{}, c.Recurrence, "recurrence is not duplicated")
	assert.Equal(t, []int64{orig, copyID}, b.Slot("B", "S"))

	subtasks, err := f.engine.Store().Subtasks(ctx, copyID)
	require.NoError(t, err)
	assert.Len(t, subtasks, 1)

	assert.Equal(t, []event.Name{event.Create}, f.events.Names())
}

func TestDuplicateToProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.board
	other := testutil.NewBoard(t, f.engine.Store(), "other", []string{"Todo", "Done"}, "S")

	d := b.Draft("copied", "C", "S")
	d.CategoryID = 4
	orig := b.AddDraft(d)

	copyID, err := f.engine.DuplicateToProject(ctx, orig, other.Project)
	require.NoError(t, err)

	c := b.Task(copyID)
	assert.Equal(t, other.Project, c.ProjectID)
	assert.Equal(t, other.Col("Todo"), c.ColumnID)
	assert.Equal(t, other.Lane("S"), c.SwimlaneID, "swimlane matched by name")
	assert.Zero(t, c.CategoryID)
	assert.Equal(t, "copied", c.Title)

	// the original stays put
	assert.Equal(t, []int64{orig}, b.Slot("C", "S"))
}

func TestDuplicateToProject_UnknownSwimlaneFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	other := testutil.NewBoard(t, f.engine.Store(), "other", []string{"Todo"})
	orig := f.board.AddTask("x", "A", "S")

	copyID, err := f.engine.DuplicateToProject(context.Background(), orig, other.Project)
	require.NoError(t, err)

	assert.Equal(t, task.DefaultSwimlane, f.board.Task(copyID).SwimlaneID)
}

func TestDuplicateToProject_MissingProject(t *testing.T) {
	f := newFixture(t)
	orig := f.board.AddTask("x", "A", "")

	_, err := f.engine.DuplicateToProject(context.Background(), orig, 9999)
	assert.True(t, IsProjectNotFound(err))
}

func TestMoveToProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.board
	other := testutil.NewBoard(t, f.engine.Store(), "other", []string{"Todo", "Done"}, "S")

	t1 := b.AddTask("one", "B", "S")
	t2 := b.AddTask("two", "B", "S")
	t3 := b.AddTask("three", "B", "S")
	resident := other.AddTask("resident", "Todo", "S")

	require.NoError(t, f.engine.MoveToProject(ctx, t2, other.Project))

	assert.Equal(t, []int64{t1, t3}, b.Slot("B", "S"))
	assert.Equal(t, []int64{resident, t2}, other.Slot("Todo", "S"))
	b.RequireContiguous()
	other.RequireContiguous()

	moved := b.Task(t2)
	assert.Equal(t, other.Project, moved.ProjectID)
	assert.True(t, moved.DateMoved.Equal(testutil.Epoch))

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, event.MoveProject, evs[0].Name)
	assert.Equal(t, b.Project, evs[0].Move.SrcProjectID)
	assert.Equal(t, other.Project, evs[0].Move.DstProjectID)
	assert.Equal(t, 2, evs[0].Move.SrcPosition)
	assert.Equal(t, 2, evs[0].Move.Position)
}

func TestMoveToProject_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.board.AddTask("one", "A", "")

	err := f.engine.MoveToProject(ctx, t1, f.board.Project)
	assert.True(t, IsInvalidPlacement(err))

	err = f.engine.MoveToProject(ctx, 999, f.board.Project)
	assert.True(t, IsTaskNotFound(err))
}

func TestBoard(t *testing.T) {
	f := newFixture(t)
	b := f.board
	t1 := b.AddTask("one", "A", "S")
	t2 := b.AddTask("two", "A", "S")
	b.AddTask("elsewhere", "A", "")
	t3 := b.AddTask("three", "C", "S")

	view, err := f.engine.Board(context.Background(), b.Project, b.Lane("S"))
	require.NoError(t, err)

	assert.Equal(t, "demo", view.Project.Name)
	require.Len(t, view.Columns, 3)
	assert.Equal(t, "A", view.Columns[0].Column.Title)
	assert.Equal(t, 3, view.Columns[0].Total, "total spans swimlanes")
	assert.Equal(t, []int64{t1, t2}, view.Ordering().Column(b.Col("A")))
	assert.Empty(t, view.Ordering().Column(b.Col("B")))
	assert.Equal(t, []int64{t3}, view.Ordering().Column(b.Col("C")))
}

func TestBoard_ProjectNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Board(context.Background(), 404, 0)
	assert.True(t, IsProjectNotFound(err))
}
