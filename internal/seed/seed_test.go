package seed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/task"
	"github.com/roach88/taskflow/internal/testutil"
)

func TestLoad_Demo(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "demo.cue"))
	require.NoError(t, err)
	require.Len(t, f.Projects, 2)

	demo := f.Projects[0]
	assert.Equal(t, "demo", demo.Name)
	assert.Equal(t, []string{"Backlog", "Doing", "Done"}, demo.Columns)
	assert.Equal(t, []string{"Ops"}, demo.Swimlanes)
	require.Len(t, demo.Tasks, 4)

	keys := demo.Tasks[2]
	require.NotNil(t, keys.Recurrence)
	assert.Equal(t, "close", keys.Recurrence.Trigger, "schema default")
	assert.Equal(t, "months", keys.Recurrence.Timeframe)
	assert.Equal(t, "due_date", keys.Recurrence.BaseDate, "schema default")

	assert.Equal(t, "personal", f.Projects[1].Name)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{
			name:    "bad trigger",
			src:     `projects: p: {columns: ["A"], tasks: [{title: "t", column: "A", recurrence: {trigger: "weekly"}}]}`,
			message: "trigger",
		},
		{
			name:    "negative factor",
			src:     `projects: p: {columns: ["A"], tasks: [{title: "t", column: "A", recurrence: {factor: -1}}]}`,
			message: "factor",
		},
		{
			name:    "bad due date format",
			src:     `projects: p: {columns: ["A"], tasks: [{title: "t", column: "A", due: "31/01/2024"}]}`,
			message: "due",
		},
		{
			name:    "impossible due date",
			src:     `projects: p: {columns: ["A"], tasks: [{title: "t", column: "A", due: "2023-02-30"}]}`,
			message: "due",
		},
		{
			name:    "unknown field",
			src:     `projects: p: {columns: ["A"], owner: "x"}`,
			message: "owner",
		},
		{
			name:    "no columns",
			src:     `projects: p: {columns: []}`,
			message: "columns",
		},
		{
			name:    "unknown column",
			src:     `projects: p: {columns: ["A"], tasks: [{title: "t", column: "B"}]}`,
			message: `unknown column "B"`,
		},
		{
			name:    "unknown swimlane",
			src:     `projects: p: {columns: ["A"], tasks: [{title: "t", column: "A", swimlane: "X"}]}`,
			message: `unknown swimlane "X"`,
		},
		{
			name:    "duplicate column",
			src:     `projects: p: {columns: ["A", "A"]}`,
			message: `duplicate column "A"`,
		},
		{
			name:    "empty file",
			src:     ``,
			message: "at least one project",
		},
		{
			name:    "syntax error",
			src:     `projects: {`,
			message: "seed.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("seed.cue", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenStore(t)
	f, err := Load(filepath.Join("testdata", "demo.cue"))
	require.NoError(t, err)

	seeded, err := Apply(ctx, s, f, testutil.Epoch)
	require.NoError(t, err)
	require.Len(t, seeded, 2)

	demo := seeded[0]
	require.Len(t, demo.Tasks, 4)
	require.NoError(t, testutil.CheckContiguous(ctx, s, demo.ID))

	backlog, err := s.Slot(ctx, demo.ID, demo.Columns["Backlog"], task.DefaultSwimlane)
	require.NoError(t, err)
	require.Len(t, backlog, 2)
	assert.Equal(t, "triage inbox", backlog[0].Title)
	assert.Equal(t, 2, backlog[1].Position)
	assert.Equal(t, int64(2), backlog[1].OwnerID)

	keys, err := s.Task(ctx, demo.Tasks[2])
	require.NoError(t, err)
	assert.Equal(t, demo.Swimlanes["Ops"], keys.SwimlaneID)
	assert.True(t, keys.DateDue.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, task.Recurrence{
		Status:    task.RecurrencePending,
		Trigger:   task.TriggerOnClose,
		Factor:    1,
		Timeframe: task.TimeframeMonths,
		BaseDate:  task.BaseDateDueDate,
	}, keys.Recurrence)

	shipped, err := s.Task(ctx, demo.Tasks[3])
	require.NoError(t, err)
	assert.False(t, shipped.Active)
	assert.Zero(t, shipped.Position)

	plants, err := s.Task(ctx, seeded[1].Tasks[0])
	require.NoError(t, err)
	assert.Equal(t, task.TriggerOnEnterLastColumn, plants.Recurrence.Trigger)
	assert.Equal(t, task.BaseDateActionDate, plants.Recurrence.BaseDate)
	assert.Equal(t, 3, plants.Recurrence.Factor)
}

func TestApply_ExistingProjectAbortsEverything(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenStore(t)
	_, err := s.CreateProject(ctx, "personal")
	require.NoError(t, err)

	f, err := Load(filepath.Join("testdata", "demo.cue"))
	require.NoError(t, err)

	_, err = Apply(ctx, s, f, testutil.Epoch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = s.ProjectByName(ctx, "demo")
	assert.Error(t, err, "earlier projects were rolled back")
}
