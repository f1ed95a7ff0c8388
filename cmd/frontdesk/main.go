package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	_ "github.com/kirinyoku/frontdesk/docs"
	"github.com/kirinyoku/frontdesk/internal/app"
	"github.com/kirinyoku/frontdesk/internal/config"
)

// @title        Frontdesk API
// @version      1.0
// @description  Front-office queue: slot booking, ticket numbering, live queue board and notifications.
// @host         localhost:8080
// @BasePath     /
func main() {
	var (
		envFile      = pflag.String("env-file", "", "path of a .env file to load (default .env if present)")
		calendarFile = pflag.String("calendar", "", "TOML file overriding slots, departments and booking window")
		debug        = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(logger, config.Options{EnvFile: *envFile, CalendarFile: *calendarFile}); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, opts config.Options) error {
	cfg, err := config.New(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(ctx)
}
