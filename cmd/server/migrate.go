package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/baseball_stats/internal/config"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/migrations"
	"github.com/Skotchmaster/baseball_stats/pkg/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			gdb, err := openDB(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			cmd.Println("migrations applied")
			return nil
		},
	}
}

// openDB connects and brings the schema up to date: SQL migrations for
// postgres, AutoMigrate for sqlite.
func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	initCtx, cancel := context.WithTimeout(ctx, cfg.DBPoolTimeout)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		return nil, err
	}

	if db.IsSQLite(cfg.DatabaseURL) {
		err = (&repo.GormRepo{DB: gdb}).AutoMigrate()
	} else {
		err = db.Migrate(cfg.DatabaseURL, migrations.FS, ".")
	}
	if err != nil {
		_ = db.Close(gdb)
		logger.Error("db_migrate_failed", "error", err)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("db_ready", "sqlite", db.IsSQLite(cfg.DatabaseURL))
	return gdb, nil
}
