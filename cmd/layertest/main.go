package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"layertest/internal/cli/commands"
	"layertest/internal/exitcodes"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := commands.NewRootCommand(version, os.Stdout, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := commands.ExitCode(err)
	if err != nil && code != exitcodes.TestFailure {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
