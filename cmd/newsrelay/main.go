package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"NewsRelay/internal/app"
	"NewsRelay/internal/config"
	"NewsRelay/internal/logging"
)

func main() {
	mode := flag.String("mode", "daily", "run mode: init, ingest, process or daily")
	limit := flag.Int("limit", 0, "max articles to process (0 uses the configured limit)")
	dryRun := flag.Bool("dry-run", false, "process without writing results back")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	switch *mode {
	case "init":
		err = application.InitSchema(ctx)
	case "ingest":
		err = application.RunIngest(ctx)
	case "process":
		err = application.RunProcess(ctx, *limit, *dryRun)
	case "daily":
		err = application.RunDaily(ctx)
	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}
