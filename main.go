package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dconfsync.dev/cli/internal/interfaces/cli"
	"dconfsync.dev/cli/internal/interfaces/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx, di.NewContainer())
}
