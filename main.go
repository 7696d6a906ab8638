package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ardnew/nova/cli"
	"github.com/ardnew/nova/cli/cmd"
	"github.com/ardnew/nova/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.Run(ctx, os.Exit, os.Args[1:]...)

	stop()

	switch {
	case err == nil:
	case errors.Is(err, cmd.ErrProgram):
		// Already reported as a diagnostic.
		os.Exit(1)
	default:
		log.Error(
			"run failed",
			slog.Any("error", err),
		) // slog automatically uses LogValue()
		os.Exit(1)
	}
}
