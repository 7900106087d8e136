package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/baseball_stats/internal/domain"
	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/shopspring/decimal"
)

type BackfillReport struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// BackfillHitsPerGame fills hits_per_game for players that have none. Players
// without hits or games, or with zero games, are skipped. With dryRun nothing
// is written. visit, when set, sees every candidate and its computed value.
func (s *PlayerService) BackfillHitsPerGame(ctx context.Context, dryRun bool, visit func(p models.Player, v decimal.NullDecimal)) (BackfillReport, error) {
	players, err := s.Repo.PlayersMissingHitsPerGame(ctx)
	if err != nil {
		return BackfillReport{}, fmt.Errorf("load players: %w", err)
	}

	report := BackfillReport{Total: len(players)}
	for _, p := range players {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		v := domain.HitsPerGame(p.Hits, p.Games)
		if visit != nil {
			visit(p, v)
		}
		if !v.Valid {
			report.Skipped++
			continue
		}
		if !dryRun {
			if err := s.Repo.SetHitsPerGame(ctx, p.ID, v); err != nil {
				return report, fmt.Errorf("update player %s: %w", p.ID, err)
			}
		}
		report.Updated++
	}
	return report, nil
}
