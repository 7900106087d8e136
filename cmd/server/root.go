package main

import (
	"log/slog"

	"github.com/Skotchmaster/baseball_stats/internal/config"
	"github.com/Skotchmaster/baseball_stats/internal/httpserver"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "baseball",
		Short:        "Baseball player statistics service",
		Version:      httpserver.Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewBackfillCmd())
	return cmd
}

// loadConfig reads the dotenv file, if present, and the environment.
func loadConfig() (*config.Config, *slog.Logger, error) {
	envErr := godotenv.Load(envFile)

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("env_file_not_loaded", "path", envFile, "reason", envErr.Error())
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("config_invalid", "error", err)
		return nil, nil, err
	}
	return cfg, logger, nil
}
