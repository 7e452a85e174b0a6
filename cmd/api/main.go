package main

import (
	"os"

	"github.com/eshaffer321/recurring-features/internal/api"
	"github.com/eshaffer321/recurring-features/internal/cli"
	"github.com/eshaffer321/recurring-features/internal/domain/features"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/config"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/logging"
	"github.com/eshaffer321/recurring-features/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseServeFlags()

	cfg := config.LoadOrDefault(flags.ConfigPath)
	if flags.Port > 0 {
		cfg.Server.Port = flags.Port
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Error("invalid engine configuration", "error", err)
		os.Exit(1)
	}
	engine := features.New(engineCfg)

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	server := api.NewServer(cfg.Server, engine, repo, logger)
	if err := server.Run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
