// ABOUTME: CLI entrypoint for imagine, the pandoc filter that turns code blocks into images and text.
// ABOUTME: Loads .env, wires signal cancellation and maps command errors to exit status 1.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	loadDotEnvAuto()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
