package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/task"
)

// taskResult renders a task after an operation.
type taskResult struct {
	task.Task
}

func (r taskResult) RenderText(w io.Writer) {
	state := "open"
	if !r.Active {
		state = "closed"
	}
	fmt.Fprintf(w, "#%d %s (%s)\n", r.ID, r.Title, state)
	fmt.Fprintf(w, "  project %d, column %d, swimlane %d, position %d\n",
		r.ProjectID, r.ColumnID, r.SwimlaneID, r.Position)
	if s := taskSuffix(r.Task); s != "" {
		fmt.Fprintf(w, " %s\n", s)
	}
}

// recurResult is the output of the recur command.
type recurResult struct {
	Generated bool  `json:"generated"`
	TaskID    int64 `json:"task_id,omitempty"`
}

func (r recurResult) RenderText(w io.Writer) {
	if !r.Generated {
		fmt.Fprintln(w, "No successor generated (task is not pending recurrence)")
		return
	}
	fmt.Fprintf(w, "✓ Generated successor #%d\n", r.TaskID)
}

// createdResult is the output of commands that create a task.
type createdResult struct {
	TaskID int64 `json:"task_id"`
}

func (r createdResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "✓ Created task #%d\n", r.TaskID)
}

// taskCommand builds a command taking a single task id.
func taskCommand(use, short, long string, opts *RootOptions, run func(ctx context.Context, a *app, id int64) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <task>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			f := opts.formatter(cmd)

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := run(cmd.Context(), a, id)
			if err != nil {
				return fail(f, use+" failed", err)
			}
			return f.Success(out)
		},
	}
}

// respondTask re-reads a task for output.
func respondTask(ctx context.Context, a *app, id int64) (any, error) {
	t, err := a.engine.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	return taskResult{Task: t}, nil
}

// MoveOptions holds flags for the move command.
type MoveOptions struct {
	*RootOptions
	Column   int64
	Position int
	Swimlane int64
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MoveOptions{RootOptions: rootOpts}
	var cmd *cobra.Command

	cmd = taskCommand("move",
		"Move a task to a column, swimlane and position",
		`Move a task and repack every column it touches. A position past the
end of the column appends. Without --swimlane the task stays in its
current swimlane.

Example:
  taskflow move 3 --column 2 --position 1 --swimlane 1`,
		rootOpts,
		func(ctx context.Context, a *app, id int64) (any, error) {
			lane := opts.Swimlane
			if !cmd.Flags().Changed("swimlane") {
				t, err := a.engine.Task(ctx, id)
				if err != nil {
					return nil, err
				}
				lane = t.SwimlaneID
			}
			err := a.engine.Move(ctx, engine.MoveRequest{
				TaskID:     id,
				ColumnID:   opts.Column,
				Position:   opts.Position,
				SwimlaneID: lane,
			})
			if err != nil {
				return nil, err
			}
			return respondTask(ctx, a, id)
		},
	)

	cmd.Flags().Int64Var(&opts.Column, "column", 0, "destination column id (required)")
	cmd.Flags().IntVar(&opts.Position, "position", 0, "1-based destination position (required)")
	cmd.Flags().Int64Var(&opts.Swimlane, "swimlane", 0, "destination swimlane id")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}

// NewRecurCommand creates the recur command.
func NewRecurCommand(rootOpts *RootOptions) *cobra.Command {
	return taskCommand("recur",
		"Generate the successor of a pending recurring task",
		`Create the next occurrence of a recurring task. A task that is not
pending recurrence is left alone.`,
		rootOpts,
		func(ctx context.Context, a *app, id int64) (any, error) {
			newID, generated, err := a.engine.Generate(ctx, id)
			if err != nil {
				return nil, err
			}
			return recurResult{Generated: generated, TaskID: newID}, nil
		},
	)
}

// NewCloseCommand creates the close command.
func NewCloseCommand(rootOpts *RootOptions) *cobra.Command {
	return taskCommand("close",
		"Close a task",
		"Close a task. A task recurring on close generates its successor.",
		rootOpts,
		func(ctx context.Context, a *app, id int64) (any, error) {
			if err := a.engine.Close(ctx, id); err != nil {
				return nil, err
			}
			return respondTask(ctx, a, id)
		},
	)
}

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return taskCommand("open",
		"Reopen a closed task",
		"Reopen a closed task at the end of its column.",
		rootOpts,
		func(ctx context.Context, a *app, id int64) (any, error) {
			if err := a.engine.Open(ctx, id); err != nil {
				return nil, err
			}
			return respondTask(ctx, a, id)
		},
	)
}

// RecurrenceOptions holds flags for the recurrence command.
type RecurrenceOptions struct {
	*RootOptions
	Enable    bool
	Disable   bool
	Trigger   string
	Factor    int
	Timeframe string
	BaseDate  string
}

// settings converts the flags that were set into recurrence settings.
func (o *RecurrenceOptions) settings(cmd *cobra.Command) (task.RecurrenceSettings, error) {
	if o.Enable == o.Disable {
		return task.RecurrenceSettings{}, NewExitError(ExitCommandError, "exactly one of --enable and --disable is required")
	}

	s := task.RecurrenceSettings{Enabled: o.Enable}
	if cmd.Flags().Changed("trigger") {
		v, err := task.ParseTrigger(o.Trigger)
		if err != nil {
			return s, WrapExitError(ExitCommandError, "invalid --trigger", err)
		}
		s.Trigger = &v
	}
	if cmd.Flags().Changed("factor") {
		if o.Factor < 0 {
			return s, NewExitError(ExitCommandError, "--factor must not be negative")
		}
		s.Factor = &o.Factor
	}
	if cmd.Flags().Changed("timeframe") {
		v, err := task.ParseTimeframe(o.Timeframe)
		if err != nil {
			return s, WrapExitError(ExitCommandError, "invalid --timeframe", err)
		}
		s.Timeframe = &v
	}
	if cmd.Flags().Changed("basedate") {
		v, err := task.ParseBaseDate(o.BaseDate)
		if err != nil {
			return s, WrapExitError(ExitCommandError, "invalid --basedate", err)
		}
		s.BaseDate = &v
	}
	return s, nil
}

// NewRecurrenceCommand creates the recurrence command.
func NewRecurrenceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecurrenceOptions{RootOptions: rootOpts}
	var cmd *cobra.Command

	cmd = taskCommand("recurrence",
		"Enable or disable recurrence on a task",
		`Configure a task's recurrence. Enabling fills in defaults for every
flag not given: trigger close, factor 1, days, due_date.

Examples:
  taskflow recurrence 4 --enable --trigger enter_last_column --factor 2 --timeframe months
  taskflow recurrence 4 --disable`,
		rootOpts,
		func(ctx context.Context, a *app, id int64) (any, error) {
			settings, err := opts.settings(cmd)
			if err != nil {
				return nil, err
			}
			if _, err := a.engine.UpdateRecurrence(ctx, id, settings); err != nil {
				return nil, err
			}
			return respondTask(ctx, a, id)
		},
	)

	cmd.Flags().BoolVar(&opts.Enable, "enable", false, "enable recurrence")
	cmd.Flags().BoolVar(&opts.Disable, "disable", false, "disable recurrence")
	cmd.Flags().StringVar(&opts.Trigger, "trigger", "close", "close|leave_first_column|enter_last_column")
	cmd.Flags().IntVar(&opts.Factor, "factor", 1, "number of timeframe units between occurrences")
	cmd.Flags().StringVar(&opts.Timeframe, "timeframe", "days", "days|months|years")
	cmd.Flags().StringVar(&opts.BaseDate, "basedate", "due_date", "due_date|action_date")

	return cmd
}

// DuplicateOptions holds flags for the duplicate command.
type DuplicateOptions struct {
	*RootOptions
	Project int64
	Move    bool
}

// NewDuplicateCommand creates the duplicate command.
func NewDuplicateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DuplicateOptions{RootOptions: rootOpts}

	cmd := taskCommand("duplicate",
		"Copy a task, or copy or move it to another project",
		`Without --project, copy the task to the end of its own column.
With --project, copy it to the first column of that project; with --move
as well, move it there instead.`,
		rootOpts,
		func(ctx context.Context, a *app, id int64) (any, error) {
			switch {
			case opts.Move && opts.Project == 0:
				return nil, NewExitError(ExitCommandError, "--move requires --project")
			case opts.Move:
				if err := a.engine.MoveToProject(ctx, id, opts.Project); err != nil {
					return nil, err
				}
				return respondTask(ctx, a, id)
			case opts.Project != 0:
				newID, err := a.engine.DuplicateToProject(ctx, id, opts.Project)
				if err != nil {
					return nil, err
				}
				return createdResult{TaskID: newID}, nil
			default:
				newID, err := a.engine.Duplicate(ctx, id)
				if err != nil {
					return nil, err
				}
				return createdResult{TaskID: newID}, nil
			}
		},
	)

	cmd.Flags().Int64Var(&opts.Project, "project", 0, "destination project id")
	cmd.Flags().BoolVar(&opts.Move, "move", false, "move instead of copy (requires --project)")

	return cmd
}
