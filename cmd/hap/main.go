// HAP - pluggable module engine
//
// This is the main entry point for the hap binary. It wires signal handling
// and build information into the command tree in internal/cli and turns the
// returned error into a process exit status.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/hap-engine/internal/cli"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM); the engine loop treats
	// this as a normal stop and shuts modules down.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:])
	cancel()
	if err != nil {
		logging.Default().Fatal(cli.ExitCode(err), "hap failed", "error", err)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, args []string) error {
	return cli.Execute(ctx, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}, args)
}
