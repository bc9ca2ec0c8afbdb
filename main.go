package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todo-tracker/backend/internal/config"
	"todo-tracker/backend/internal/logging"
	"todo-tracker/backend/internal/server"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todo-tracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).
		With().
		Str("environment", cfg.Server.Environment).
		Logger()

	// kill (no params) sends SIGTERM, kill -2 is SIGINT
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}
	defer closeApp(app, logger)

	return server.New(cfg, app, logger).Run(ctx)
}

func closeApp(app *server.App, logger zerolog.Logger) {
	if err := app.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to release resources")
	}
}
