package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/domain"
	"github.com/Skotchmaster/baseball_stats/internal/events"
	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	"github.com/Skotchmaster/baseball_stats/internal/transport"
	"github.com/Skotchmaster/baseball_stats/internal/util"
	"github.com/Skotchmaster/baseball_stats/internal/validation"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlayerIndexer interface {
	IndexPlayer(ctx context.Context, p *models.Player) error
	DeletePlayer(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Player, error)
}

type PlayerService struct {
	Repo      *repo.GormRepo
	Validator *validation.Validator
	Events    events.Publisher
	Index     PlayerIndexer
}

func (s *PlayerService) List(ctx context.Context, q transport.ListPlayersQuery) (*transport.PlayerListResponse, error) {
	if err := validate(s.Validator, q); err != nil {
		return nil, err
	}
	sortField, err := repo.ParseSortField(q.SortBy)
	if err != nil {
		fields := repo.SortFields()
		sort.Strings(fields)
		return nil, fieldError("sort_by", "must be one of: "+strings.Join(fields, ", "))
	}
	order, err := repo.ParseSortOrder(q.SortOrder)
	if err != nil {
		return nil, fieldError("sort_order", "must be asc or desc")
	}

	offset, limit := util.Calculate(q.Page, q.PageSize)
	total, items, err := s.Repo.ListPlayers(ctx, repo.PlayerFilter{
		Search:   q.Search,
		Position: q.Position,
		Sort:     sortField,
		Order:    order,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	return &transport.PlayerListResponse{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: limit,
		Pages:    util.Pages(total, limit),
	}, nil
}

func (s *PlayerService) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, err := s.Repo.GetPlayer(ctx, id, true)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *PlayerService) Create(ctx context.Context, req transport.CreatePlayerRequest) (*models.Player, error) {
	if err := validate(s.Validator, req); err != nil {
		return nil, err
	}
	if err := checkRates(req.PlayerStats); err != nil {
		return nil, err
	}

	p := &models.Player{PlayerName: req.PlayerName}
	if req.Position != nil {
		pos := domain.NormalizePosition(*req.Position)
		p.Position = &pos
	}
	applyStats(p, req.PlayerStats)

	if err := s.SavePlayer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SavePlayer derives hits_per_game and inserts p as a new row.
func (s *PlayerService) SavePlayer(ctx context.Context, p *models.Player) error {
	p.HitsPerGame = domain.HitsPerGame(p.Hits, p.Games)
	if err := s.Repo.CreatePlayer(ctx, p); err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	s.afterWrite(ctx, events.PlayerCreated, p)
	return nil
}

func (s *PlayerService) Update(ctx context.Context, id uuid.UUID, req transport.PatchPlayerRequest) (*models.Player, error) {
	if err := validate(s.Validator, req); err != nil {
		return nil, err
	}
	if err := checkRates(req.PlayerStats); err != nil {
		return nil, err
	}

	p, err := s.Repo.UpdatePlayer(ctx, id, func(p *models.Player) error {
		if req.PlayerName != nil {
			p.PlayerName = *req.PlayerName
		}
		if req.Position != nil {
			pos := domain.NormalizePosition(*req.Position)
			p.Position = &pos
		}
		applyStats(p, req.PlayerStats)
		if req.Hits != nil || req.Games != nil {
			p.HitsPerGame = domain.HitsPerGame(p.Hits, p.Games)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update player: %w", err)
	}

	s.afterWrite(ctx, events.PlayerUpdated, p)
	return p, nil
}

func (s *PlayerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeletePlayer(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete player: %w", err)
	}

	if s.Index != nil {
		if err := s.Index.DeletePlayer(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "player_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicPlayers, id.String(), events.PlayerEvent{
		Type:     events.PlayerDeleted,
		PlayerID: id.String(),
		At:       time.Now().UTC(),
	})
	return nil
}

func (s *PlayerService) Search(ctx context.Context, query string, page, size int) (*transport.PlayerListResponse, error) {
	if s.Index == nil {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fieldError("q", "field required")
	}
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	return &transport.PlayerListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: limit,
		Pages:    util.Pages(total, limit),
	}, nil
}

func (s *PlayerService) afterWrite(ctx context.Context, eventType string, p *models.Player) {
	if s.Index != nil {
		if err := s.Index.IndexPlayer(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "player_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicPlayers, p.ID.String(), events.PlayerEvent{
		Type:       eventType,
		PlayerID:   p.ID.String(),
		PlayerName: p.PlayerName,
		At:         time.Now().UTC(),
	})
}

func checkRates(st transport.PlayerStats) error {
	fields := map[string]string{}
	for name, v := range st.Rates() {
		if v == nil {
			continue
		}
		if err := domain.CheckRate(name, *v); err != nil {
			fields[name] = err.Error()
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func applyStats(p *models.Player, st transport.PlayerStats) {
	setInt := func(dst **int, v *int) {
		if v != nil {
			n := *v
			*dst = &n
		}
	}
	setInt(&p.Games, st.Games)
	setInt(&p.AtBats, st.AtBats)
	setInt(&p.Runs, st.Runs)
	setInt(&p.Hits, st.Hits)
	setInt(&p.Doubles, st.Doubles)
	setInt(&p.Triples, st.Triples)
	setInt(&p.HomeRuns, st.HomeRuns)
	setInt(&p.RBIs, st.RBIs)
	setInt(&p.Walks, st.Walks)
	setInt(&p.Strikeouts, st.Strikeouts)
	setInt(&p.StolenBases, st.StolenBases)
	setInt(&p.CaughtStealing, st.CaughtStealing)

	setRate := func(dst *decimal.NullDecimal, v *decimal.Decimal) {
		if v != nil {
			*dst = decimal.NewNullDecimal(v.Round(3))
		}
	}
	setRate(&p.BattingAverage, st.BattingAverage)
	setRate(&p.OnBasePercentage, st.OnBasePercentage)
	setRate(&p.SluggingPercentage, st.SluggingPercentage)
	setRate(&p.OPS, st.OPS)
}
