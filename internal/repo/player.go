package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SortField names a sortable player column. Only the values in sortColumns are accepted.
type SortField string

const (
	SortByName        SortField = "player_name"
	SortByPosition    SortField = "position"
	SortByGames       SortField = "games"
	SortByHits        SortField = "hits"
	SortByHomeRuns    SortField = "home_runs"
	SortByRBIs        SortField = "rbis"
	SortByAverage     SortField = "batting_average"
	SortByOPS         SortField = "ops"
	SortByHitsPerGame SortField = "hits_per_game"
	SortByCreatedAt   SortField = "created_at"
)

var sortColumns = map[SortField]string{
	SortByName:            "player_name",
	SortByPosition:        "position",
	SortByGames:           "games",
	"at_bats":             "at_bats",
	"runs":                "runs",
	SortByHits:            "hits",
	"doubles":             "doubles",
	"triples":             "triples",
	SortByHomeRuns:        "home_runs",
	SortByRBIs:            "rbis",
	"walks":               "walks",
	"strikeouts":          "strikeouts",
	"stolen_bases":        "stolen_bases",
	"caught_stealing":     "caught_stealing",
	SortByAverage:         "batting_average",
	"on_base_percentage":  "on_base_percentage",
	"slugging_percentage": "slugging_percentage",
	SortByOPS:             "ops",
	SortByHitsPerGame:     "hits_per_game",
	SortByCreatedAt:       "created_at",
	"updated_at":          "updated_at",
}

func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortByName, nil
	}
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sortColumns[f]; !ok {
		return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, s)
	}
	return f, nil
}

func SortFields() []string {
	out := make([]string, 0, len(sortColumns))
	for f := range sortColumns {
		out = append(out, string(f))
	}
	return out
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: sort order must be asc or desc", ErrInvalidFilter)
}

type PlayerFilter struct {
	Search   string
	Position string
	Sort     SortField
	Order    SortOrder
	Offset   int
	Limit    int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f PlayerFilter) apply(db *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		db = db.Where(`LOWER(player_name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(s))+"%")
	}
	if p := strings.TrimSpace(f.Position); p != "" {
		db = db.Where("position = ?", strings.ToUpper(p))
	}
	return db
}

func (r *GormRepo) ListPlayers(ctx context.Context, f PlayerFilter) (int64, []models.Player, error) {
	column, ok := sortColumns[f.Sort]
	if !ok {
		return 0, nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, f.Sort)
	}
	direction := "ASC"
	if f.Order == Desc {
		direction = "DESC"
	}

	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Player{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Player, 0, f.Limit)
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Player{})).
		Order(column + " " + direction).
		Order("id ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) GetPlayer(ctx context.Context, id uuid.UUID, withDescriptions bool) (*models.Player, error) {
	q := r.DB.WithContext(ctx)
	if withDescriptions {
		q = q.Preload("Descriptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})
	}

	var p models.Player
	if err := q.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormRepo) PlayerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Player{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreatePlayer(ctx context.Context, p *models.Player) error {
	return translate(r.DB.WithContext(ctx).Omit("Descriptions").Create(p).Error)
}

// UpdatePlayer loads the player, lets apply mutate it and saves the result in
// one transaction. An error from apply aborts the update.
func (r *GormRepo) UpdatePlayer(ctx context.Context, id uuid.UUID, apply func(*models.Player) error) (*models.Player, error) {
	var p models.Player
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return translate(err)
		}
		if err := apply(&p); err != nil {
			return err
		}
		return tx.Omit("Descriptions").Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlayer removes the player and its descriptions together, without
// relying on the database to cascade.
func (r *GormRepo) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("player_id = ?", id).Delete(&models.PlayerDescription{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Player{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) PlayersMissingHitsPerGame(ctx context.Context) ([]models.Player, error) {
	var items []models.Player
	if err := r.DB.WithContext(ctx).
		Where("hits_per_game IS NULL").
		Order("player_name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SetHitsPerGame(ctx context.Context, id uuid.UUID, v decimal.NullDecimal) error {
	res := r.DB.WithContext(ctx).Model(&models.Player{}).Where("id = ?", id).Update("hits_per_game", v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
