// Command cfbspreads ingests college-football odds into weekly pick slates.
// It loads configuration, validates it, wires dependencies, sets up signal
// handling, and starts the application in the configured mode.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alanyoungcy/cfbspreads/internal/app"
	"github.com/alanyoungcy/cfbspreads/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	mode := flag.String("mode", "", "override mode: ingest, schedule, server, full")
	season := flag.Int("season", 0, "override ingest season")
	week := flag.Int("week", -1, "override ingest week")
	gameDays := flag.String("game-days", "", "comma-separated YYYY-MM-DD dates to ingest")
	printConfig := flag.Bool("print-config", false, "print the effective configuration with secrets redacted and exit")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !flagSet("config") {
		path = "" // defaults plus environment
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if *mode != "" {
		cfg.Mode = *mode
	}
	if *season > 0 {
		cfg.Ingest.Season = *season
	}
	if *week >= 0 {
		cfg.Ingest.Week = *week
	}
	if *gameDays != "" {
		cfg.Ingest.GameDays = nil
		for _, d := range strings.Split(*gameDays, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Ingest.GameDays = append(cfg.Ingest.GameDays, d)
			}
		}
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	if *printConfig {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(config.RedactedConfig(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "print config: %v\n", err)
			return 1
		}
		return 0
	}

	logger.Info("cfbspreads starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", path),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
			return 0
		}
		logger.Error("application exited with error",
			slog.String("error", err.Error()),
		)
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}

	logger.Info("cfbspreads stopped")
	return 0
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
