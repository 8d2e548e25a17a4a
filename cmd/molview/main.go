// Command molview analyzes molecules against a chemistry service and serves
// interactive analysis sessions.
package main

import (
	"os"

	"github.com/turtacn/molview/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute has already reported the error.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
