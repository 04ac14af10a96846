package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	config "github.com/meetpulse/backend/config/meet"
	"github.com/meetpulse/backend/gateways/meet"
	"github.com/meetpulse/backend/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:      slog.LevelDebug,
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})
	logger.SetDefault(log)
	log.Info("initializing meet gateway")

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment as-is")
	}

	cfg := config.MustLoad()
	log.Info("configuration loaded successfully",
		slog.Int("port", cfg.Port),
		slog.Bool("fireflies_api_key_set", cfg.FirefliesAPIKey != ""),
		slog.String("coach_url", cfg.CoachService.Url),
		slog.Int("coach_port", cfg.CoachService.Port))

	rootCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	log.Info("starting meet gateway application")
	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		return
	}
	log.Info("application terminated successfully")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	srv, err := meet.New(cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	if err := srv.Start(ctx); err != nil {
		log.Error("server start failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
