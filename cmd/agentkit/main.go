package main

import (
	"context"
	"os"

	"github.com/stratumhq/agentkit/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:]))
}
