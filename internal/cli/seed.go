package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/taskflow/internal/seed"
)

// seedResult is the output of the seed command.
type seedResult struct {
	Projects []seed.Seeded `json:"projects"`
}

func (r seedResult) RenderText(w io.Writer) {
	for _, p := range r.Projects {
		fmt.Fprintf(w, "✓ %s (project %d): %d columns, %d swimlanes, %d tasks\n",
			p.Name, p.ID, len(p.Columns), len(p.Swimlanes)-1, len(p.Tasks))
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.cue>",
		Short: "Create boards from a CUE seed file",
		Long: `Validate a CUE seed file against the board schema and create its
projects, columns, swimlanes and tasks in one transaction.

Example:
  taskflow seed --db ./taskflow.db ./boards.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	file, err := seed.Load(path)
	if err != nil {
		if opts.Format == "json" {
			_ = f.Error("SEED_INVALID", err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "invalid seed file", err)
	}

	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	seeded, err := seed.Apply(cmd.Context(), a.store, file, a.engine.Now())
	if err != nil {
		return fail(f, "seed failed", err)
	}
	return f.Success(seedResult{Projects: seeded})
}
