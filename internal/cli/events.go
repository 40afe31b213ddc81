package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskflow/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Correlation string
	Task        int64
	Name        string
	Limit       int
}

// eventEntry is one logged event with its payload inlined.
type eventEntry struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CorrelationID string          `json:"correlation_id"`
	Seq           int64           `json:"seq"`
	TaskID        int64           `json:"task_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type eventsResult struct {
	Events []eventEntry `json:"events"`
}

func (r eventsResult) RenderText(w io.Writer) {
	if len(r.Events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	for _, e := range r.Events {
		fmt.Fprintf(w, "%s  %-20s task=%-4d %s#%d\n",
			e.OccurredAt.UTC().Format(time.RFC3339), e.Name, e.TaskID, e.CorrelationID, e.Seq)
	}
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List logged events",
		Long: `List events from the event log in the order they were published.
Every operation shares one correlation id across the events it caused.

Examples:
  taskflow events --task 3
  taskflow events --name task.create --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "only events of this correlation id")
	cmd.Flags().Int64Var(&opts.Task, "task", 0, "only events of this task")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only events with this name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum number of events (0 for all)")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.store.Events(cmd.Context(), store.EventFilter{
		CorrelationID: opts.Correlation,
		TaskID:        opts.Task,
		Name:          opts.Name,
		Limit:         opts.Limit,
	})
	if err != nil {
		return fail(f, "failed to read events", err)
	}

	out := eventsResult{Events: make([]eventEntry, len(records))}
	for i, r := range records {
		out.Events[i] = eventEntry{
			ID:            r.ID,
			Name:          r.Name,
			CorrelationID: r.CorrelationID,
			Seq:           r.Seq,
			TaskID:        r.TaskID,
			OccurredAt:    r.OccurredAt,
			Payload:       json.RawMessage(r.Payload),
		}
	}
	return f.Success(out)
}
