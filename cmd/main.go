package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/egecelikci/favorites/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrPartialRun):
			logger.Warn("run completed with failures")
			os.Exit(2)
		case errors.Is(err, shared.ErrLocked):
			logger.Error("another sync is running")
			os.Exit(75)
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
			os.Exit(130)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
