package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/labelfwd/internal/cli"
	"github.com/joshsymonds/labelfwd/internal/runtime"
)

func main() {
	if err := run(); err != nil {
		runtime.DefaultLogger().Error("labelfwd failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return cli.NewRootCmd().ExecuteContext(ctx)
}
