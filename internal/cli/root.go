// Package cli implements the agentkit command line: one-shot agent runs
// against a configured provider, tool listing, and effective-config
// inspection.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Run dispatches the command line. It returns an exit code instead of
// exiting so main stays trivial and tests can call it.
func Run(ctx context.Context, args []string) int {
	if len(args) < 1 {
		printUsage()
		return 0
	}

	switch strings.TrimSpace(args[0]) {
	case "run":
		return runAgent(ctx, args[1:])
	case "tools":
		return listTools()
	case "config":
		return showConfig(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		return runAgent(ctx, args)
	}
}

func fail(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 1
}
