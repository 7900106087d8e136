package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DescriptionSystemPrompt = `You are a baseball analyst and sports writer. Generate engaging,
insightful descriptions of baseball players based on their statistics. Your descriptions
should be 2-3 paragraphs and should:
1. Highlight the player's strengths based on their stats
2. Provide context about what the numbers mean
3. Be written in an engaging, sports-journalism style
4. Avoid speculation about things not reflected in the stats
5. Be factual and based only on the provided statistics`

// Blended per-token price of the default model.
var costPerToken = decimal.RequireFromString("0.0000003")

type Generation struct {
	Content    string
	Model      string
	TokensUsed int
}

type Generator interface {
	Generate(ctx context.Context, system, prompt string) (*Generation, error)
}

type DescriptionService struct {
	Repo      *repo.GormRepo
	Generator Generator
}

func (s *DescriptionService) Generate(ctx context.Context, playerID uuid.UUID) (*models.PlayerDescription, error) {
	l := logging.FromContext(ctx).With("svc", "ai.describe", "player_id", playerID)

	p, err := s.Repo.GetPlayer(ctx, playerID, false)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
		}
		return nil, err
	}
	if s.Generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	gen, err := s.Generator.Generate(ctx, DescriptionSystemPrompt,
		"Generate a description for this player:\n\n"+BuildPlayerPrompt(p))
	if err != nil {
		l.Error("describe_failed", "status", 502, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGeneratorFailed, err)
	}

	tokens := gen.TokensUsed
	d := &models.PlayerDescription{
		PlayerID:   p.ID,
		Content:    gen.Content,
		ModelUsed:  gen.Model,
		TokensUsed: &tokens,
		CostUSD:    decimal.NewNullDecimal(costPerToken.Mul(decimal.NewFromInt(int64(tokens)))),
	}
	if err := s.Repo.CreateDescription(ctx, d); err != nil {
		return nil, fmt.Errorf("save description: %w", err)
	}

	l.Info("describe_success", "tokens_used", tokens)
	return d, nil
}

func (s *DescriptionService) List(ctx context.Context, playerID uuid.UUID) ([]models.PlayerDescription, error) {
	ok, err := s.Repo.PlayerExists(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return s.Repo.ListDescriptions(ctx, playerID)
}

// BuildPlayerPrompt renders the stat sheet sent to the text generator.
func BuildPlayerPrompt(p *models.Player) string {
	position := "Unknown"
	if p.Position != nil && *p.Position != "" {
		position = *p.Position
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\nPosition: %s\n\nStatistics:\n", p.PlayerName, position)

	rows := []struct {
		label string
		value string
	}{
		{"Games", formatInt(p.Games)},
		{"At Bats", formatInt(p.AtBats)},
		{"Runs", formatInt(p.Runs)},
		{"Hits", formatInt(p.Hits)},
		{"Doubles", formatInt(p.Doubles)},
		{"Triples", formatInt(p.Triples)},
		{"Home Runs", formatInt(p.HomeRuns)},
		{"RBIs", formatInt(p.RBIs)},
		{"Walks", formatInt(p.Walks)},
		{"Strikeouts", formatInt(p.Strikeouts)},
		{"Stolen Bases", formatInt(p.StolenBases)},
		{"Caught Stealing", formatInt(p.CaughtStealing)},
		{"Batting Average", formatRate(p.BattingAverage)},
		{"On-Base Percentage", formatRate(p.OnBasePercentage)},
		{"Slugging Percentage", formatRate(p.SluggingPercentage)},
		{"OPS", formatRate(p.OPS)},
	}
	for i, r := range rows {
		fmt.Fprintf(&b, "- %s: %s", r.label, r.value)
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func formatRate(v decimal.NullDecimal) string {
	if !v.Valid {
		return "N/A"
	}
	return v.Decimal.StringFixed(3)
}
