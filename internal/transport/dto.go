package transport

import (
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

// LoginRequest mirrors the OAuth2 password form: the email travels as "username".
type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// PlayerStats carries the optional stat columns shared by create and update.
type PlayerStats struct {
	Games          *int `json:"games"           validate:"omitempty,min=0"`
	AtBats         *int `json:"at_bats"         validate:"omitempty,min=0"`
	Runs           *int `json:"runs"            validate:"omitempty,min=0"`
	Hits           *int `json:"hits"            validate:"omitempty,min=0"`
	Doubles        *int `json:"doubles"         validate:"omitempty,min=0"`
	Triples        *int `json:"triples"         validate:"omitempty,min=0"`
	HomeRuns       *int `json:"home_runs"       validate:"omitempty,min=0"`
	RBIs           *int `json:"rbis"            validate:"omitempty,min=0"`
	Walks          *int `json:"walks"           validate:"omitempty,min=0"`
	Strikeouts     *int `json:"strikeouts"      validate:"omitempty,min=0"`
	StolenBases    *int `json:"stolen_bases"    validate:"omitempty,min=0"`
	CaughtStealing *int `json:"caught_stealing" validate:"omitempty,min=0"`

	BattingAverage     *decimal.Decimal `json:"batting_average"`
	OnBasePercentage   *decimal.Decimal `json:"on_base_percentage"`
	SluggingPercentage *decimal.Decimal `json:"slugging_percentage"`
	OPS                *decimal.Decimal `json:"ops"`
}

// Rates lists the rate stats by column name, for range checks.
func (s PlayerStats) Rates() map[string]*decimal.Decimal {
	return map[string]*decimal.Decimal{
		"batting_average":     s.BattingAverage,
		"on_base_percentage":  s.OnBasePercentage,
		"slugging_percentage": s.SluggingPercentage,
		"ops":                 s.OPS,
	}
}

type CreatePlayerRequest struct {
	PlayerName string  `json:"player_name" validate:"required,min=1,max=100"`
	Position   *string `json:"position"    validate:"omitempty,max=50"`
	PlayerStats
}

type PatchPlayerRequest struct {
	PlayerName *string `json:"player_name" validate:"omitempty,min=1,max=100"`
	Position   *string `json:"position"    validate:"omitempty,max=50"`
	PlayerStats
}

type ListPlayersQuery struct {
	Page      int    `query:"page"       validate:"min=1"`
	PageSize  int    `query:"page_size"  validate:"min=1,max=100"`
	Search    string `query:"search"`
	Position  string `query:"position"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type PlayerListResponse struct {
	Items    []models.Player `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Pages    int64           `json:"pages"`
}

