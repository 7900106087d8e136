package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func NewBackfillCmd() *cobra.Command {
	var dryRun, verbose bool

	cmd := &cobra.Command{
		Use:   "backfill-hits-per-game",
		Short: "Compute hits_per_game for players that have none",
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

			svc := &service.PlayerService{Repo: &repo.GormRepo{DB: gdb}}
			_, err = runBackfill(cmd.Context(), svc, cmd.OutOrStdout(), dryRun, verbose)
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print every candidate player")
	return cmd
}

func runBackfill(ctx context.Context, svc *service.PlayerService, out io.Writer, dryRun, verbose bool) (service.BackfillReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if dryRun {
		fmt.Fprintln(out, "dry run: no changes will be written")
	}

	var visit func(models.Player, decimal.NullDecimal)
	if verbose {
		visit = func(p models.Player, v decimal.NullDecimal) {
			if !v.Valid {
				fmt.Fprintf(out, "skip   %s (%s): hits or games missing\n", p.PlayerName, p.ID)
				return
			}
			fmt.Fprintf(out, "update %s (%s): hits_per_game=%s\n", p.PlayerName, p.ID, v.Decimal.StringFixed(3))
		}
	}

	report, err := svc.BackfillHitsPerGame(ctx, dryRun, visit)
	if err != nil {
		return report, err
	}
	fmt.Fprintf(out, "total: %d\nupdated: %d\nskipped: %d\n", report.Total, report.Updated, report.Skipped)
	return report, nil
}
