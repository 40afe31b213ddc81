package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "Minimal scenario"
board:
  columns: [A, B]
  tasks:
    - {ref: t1, title: one, column: A}
steps:
  - move: {task: t1, column: B, position: 1}
assertions:
  - {type: board, column: B, tasks: [t1]}
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, DefaultProject, scenario.Board.Name)
	assert.Equal(t, []string{"A", "B"}, scenario.Board.Columns)
	require.Len(t, scenario.Board.Tasks, 1)
	assert.Equal(t, "t1", scenario.Board.Tasks[0].Ref)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, "move", scenario.Steps[0].Kind())
	assert.Equal(t, 1, scenario.Steps[0].Move.Position)
	assert.Nil(t, scenario.Steps[0].Move.Swimlane)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertBoard, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ExplicitDefaultSwimlane(t *testing.T) {
	src := `
name: lanes
description: "Move back to the default swimlane"
board:
  columns: [A]
  swimlanes: [S]
  tasks:
    - {ref: t1, title: one, column: A, swimlane: S}
steps:
  - move: {task: t1, column: A, position: 1, swimlane: ""}
assertions:
  - {type: board, column: A, tasks: [t1]}
`
	scenario, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, scenario.Steps[0].Move.Swimlane)
	assert.Equal(t, "", *scenario.Steps[0].Move.Swimlane)
}

func TestParseScenario_Invalid(t *testing.T) {
	board := `
board:
  columns: [A, B]
  swimlanes: [S]
  tasks:
    - {ref: t1, title: one, column: A}
  projects:
    - {name: other, columns: [X]}
`
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "missing name",
			src:     "description: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: contiguous}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			src:     "name: n\n" + board + "steps: [{close: t1}]\nassertions: [{type: contiguous}]\n",
			wantErr: "description is required",
		},
		{
			name:    "bad now",
			src:     "name: n\ndescription: d\nnow: yesterday\n" + board + "steps: [{close: t1}]\nassertions: [{type: contiguous}]\n",
			wantErr: "now:",
		},
		{
			name:    "no steps",
			src:     "name: n\ndescription: d\n" + board + "steps: []\nassertions: [{type: contiguous}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "no columns",
			src:     "name: n\ndescription: d\nboard: {columns: []}\nsteps: [{advance: 1h}]\nassertions: [{type: contiguous}]\n",
			wantErr: "columns list is required",
		},
		{
			name:    "task in unknown column",
			src:     "name: n\ndescription: d\nboard: {columns: [A], tasks: [{title: x, column: Z}]}\nsteps: [{advance: 1h}]\nassertions: [{type: contiguous}]\n",
			wantErr: `unknown column "Z"`,
		},
		{
			name:    "task in unknown swimlane",
			src:     "name: n\ndescription: d\nboard: {columns: [A], tasks: [{title: x, column: A, swimlane: Q}]}\nsteps: [{advance: 1h}]\nassertions: [{type: contiguous}]\n",
			wantErr: `unknown swimlane "Q"`,
		},
		{
			name:    "duplicate ref",
			src:     "name: n\ndescription: d\nboard: {columns: [A], tasks: [{title: x, column: A}, {title: x, column: A}]}\nsteps: [{advance: 1h}]\nassertions: [{type: contiguous}]\n",
			wantErr: `ref "x" already bound`,
		},
		{
			name:    "bad recurrence",
			src:     "name: n\ndescription: d\nboard: {columns: [A], tasks: [{title: x, column: A, recurrence: {timeframe: weeks}}]}\nsteps: [{advance: 1h}]\nassertions: [{type: contiguous}]\n",
			wantErr: "unknown timeframe",
		},
		{
			name:    "empty step",
			src:     "name: n\ndescription: d\n" + board + "steps: [{as: x}]\nassertions: [{type: contiguous}]\n",
			wantErr: "no operation",
		},
		{
			name:    "two operations",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1, open: t1}]\nassertions: [{type: contiguous}]\n",
			wantErr: "more than one operation",
		},
		{
			name:    "unknown ref",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: nope}]\nassertions: [{type: contiguous}]\n",
			wantErr: `unknown task ref "nope"`,
		},
		{
			name:    "ref used before bound",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: later}, {recur: t1, as: later}]\nassertions: [{type: contiguous}]\n",
			wantErr: `unknown task ref "later"`,
		},
		{
			name:    "unknown project",
			src:     "name: n\ndescription: d\n" + board + "steps: [{duplicate: {task: t1, project: nowhere}}]\nassertions: [{type: contiguous}]\n",
			wantErr: `unknown project "nowhere"`,
		},
		{
			name:    "move to project without project",
			src:     "name: n\ndescription: d\n" + board + "steps: [{duplicate: {task: t1, move: true}}]\nassertions: [{type: contiguous}]\n",
			wantErr: "move requires a project",
		},
		{
			name:    "bad advance",
			src:     "name: n\ndescription: d\n" + board + "steps: [{advance: soon}]\nassertions: [{type: contiguous}]\n",
			wantErr: "advance:",
		},
		{
			name:    "unknown error code",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1, expect: {error: BOOM}}]\nassertions: [{type: contiguous}]\n",
			wantErr: `unknown error code "BOOM"`,
		},
		{
			name:    "generated on close",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1, expect: {generated: true}}]\nassertions: [{type: contiguous}]\n",
			wantErr: "generated only applies to recur",
		},
		{
			name:    "unknown assertion type",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: final_state}]\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "board assertion unknown column",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: board, column: Z}]\n",
			wantErr: `unknown column "Z"`,
		},
		{
			name:    "board assertion in other project",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: board, project: other, column: A}]\n",
			wantErr: `unknown column "A" in project "other"`,
		},
		{
			name:    "task assertion without expect",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: task, task: t1}]\n",
			wantErr: "expect is required",
		},
		{
			name:    "event_count without event",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: event_count, count: 1}]\n",
			wantErr: "event is required",
		},
		{
			name:    "event_order without events",
			src:     "name: n\ndescription: d\n" + board + "steps: [{close: t1}]\nassertions: [{type: event_order}]\n",
			wantErr: "events list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenario_StartTime(t *testing.T) {
	s := &Scenario{}
	start, err := s.StartTime()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)))

	s.Now = "2025-06-01T12:00:00+02:00"
	start, err = s.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, start.Location())
	assert.Equal(t, 10, start.Hour())
}

func TestLiteralID(t *testing.T) {
	id, ok := literalID("#42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, ref := range []string{"42", "#", "#0", "#-1", "#x"} {
		_, ok := literalID(ref)
		assert.False(t, ok, ref)
	}
}
