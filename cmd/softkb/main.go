// Command softkb validates board descriptions, encodes matrix frames and
// simulates a split keyboard on the host.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardnew/softkb/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Errors are printed by the commands themselves.
	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
