package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vatcompanion/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "vatcompanion:", err)
		os.Exit(1)
	}
}
