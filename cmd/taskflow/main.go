// Command taskflow keeps kanban boards ordered and regenerates recurring
// tasks.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/taskflow/internal/cli"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
