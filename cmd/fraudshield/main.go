package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/config"
)

const usageText = `Usage: fraudshield <command> [options]

Commands:
  bot       run the Discord bot and the health server
  analyze   score one transaction and record it
  history   print the deduplicated history, newest first
  track     print per-type counts over the latest 20 records
  summary   print totals and the estimated affected amount
  clear     delete the history
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if dotenvErr != nil {
		logger.Debug("no .env file loaded", "error", dotenvErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = appcontext.WithLogger(ctx, logger)

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usageText)
			os.Exit(2)
		}
		logger.Error("fraudshield exited with an error", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}
