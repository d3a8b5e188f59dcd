package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/scrollgrab/internal/cli"
)

func main() {
	// Ctrl+C cancels the run; the CLI stops the browser and workers and
	// exits cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
