package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// BoardOptions holds flags for the board command.
type BoardOptions struct {
	*RootOptions
	Swimlane int64
}

// boardResult renders a board view.
type boardResult struct {
	engine.BoardView
}

func (r boardResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s (project %d), swimlane %d\n", r.Project.Name, r.Project.ID, r.Swimlane)
	for _, c := range r.Columns {
		fmt.Fprintf(w, "\n%s (%d/%d)\n", c.Column.Title, len(c.Tasks), c.Total)
		for _, t := range c.Tasks {
			fmt.Fprintf(w, "  %d. #%d %s%s\n", t.Position, t.ID, t.Title, taskSuffix(t))
		}
	}
}

// taskSuffix lists the due date and recurrence of a task, if any.
func taskSuffix(t task.Task) string {
	s := ""
	if !t.DateDue.IsZero() {
		s += "  due " + t.DateDue.Format(time.DateOnly)
	}
	if t.Recurrence.Status != task.RecurrenceNone {
		s += fmt.Sprintf("  [recurs %s: %d %s, %s]",
			t.Recurrence.Trigger, t.Recurrence.Factor, t.Recurrence.Timeframe, t.Recurrence.Status)
	}
	return s
}

// NewBoardCommand creates the board command.
func NewBoardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BoardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "board <project>",
		Short: "Show one swimlane of a project board",
		Long: `Show the open tasks of each column of a project, in position order.
The project may be given by id or by name.

Examples:
  taskflow board demo
  taskflow board 1 --swimlane 2 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Swimlane, "swimlane", 0, "swimlane id (0 is the default swimlane)")

	return cmd
}

func runBoard(opts *BoardOptions, project string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	projectID, err := resolveProject(ctx, a.store, project)
	if err != nil {
		return err
	}

	view, err := a.engine.Board(ctx, projectID, opts.Swimlane)
	if err != nil {
		return fail(f, "failed to read board", err)
	}
	return f.Success(boardResult{BoardView: view})
}

// resolveProject accepts a project id or name.
func resolveProject(ctx context.Context, st *store.Store, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	p, err := st.ProjectByName(ctx, ref)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("unknown project %q", ref), err)
	}
	return p.ID, nil
}
