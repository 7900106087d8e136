package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"                     json:"id"`
	Email          string    `gorm:"size:255;not null;uniqueIndex:ux_users_email"    json:"email"`
	Username       string    `gorm:"size:50;not null;uniqueIndex:ux_users_username"  json:"username"`
	HashedPassword string    `gorm:"size:255;not null"                        json:"-"`
	IsActive       bool      `gorm:"not null;default:true"                    json:"is_active"`
	CreatedAt      time.Time `gorm:"not null"                                 json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null"                                 json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Player struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	PlayerName string    `gorm:"size:100;not null;index"     json:"player_name"`
	Position   *string   `gorm:"size:50;index"               json:"position"`

	Games          *int `json:"games"`
	AtBats         *int `json:"at_bats"`
	Runs           *int `json:"runs"`
	Hits           *int `json:"hits"`
	Doubles        *int `json:"doubles"`
	Triples        *int `json:"triples"`
	HomeRuns       *int `json:"home_runs"`
	RBIs           *int `gorm:"column:rbis" json:"rbis"`
	Walks          *int `json:"walks"`
	Strikeouts     *int `json:"strikeouts"`
	StolenBases    *int `json:"stolen_bases"`
	CaughtStealing *int `json:"caught_stealing"`

	BattingAverage     decimal.NullDecimal `gorm:"type:numeric(5,3)" json:"batting_average"`
	OnBasePercentage   decimal.NullDecimal `gorm:"type:numeric(5,3)" json:"on_base_percentage"`
	SluggingPercentage decimal.NullDecimal `gorm:"type:numeric(5,3)" json:"slugging_percentage"`
	OPS                decimal.NullDecimal `gorm:"column:ops;type:numeric(5,3)" json:"ops"`

	HitsPerGame decimal.NullDecimal `gorm:"type:numeric(8,3)" json:"hits_per_game"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Descriptions []PlayerDescription `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"descriptions,omitempty"`
}

func (p *Player) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type PlayerDescription struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"     json:"id"`
	PlayerID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"player_id"`
	Content    string              `gorm:"type:text;not null"       json:"content"`
	ModelUsed  string              `gorm:"size:50;not null"         json:"model_used"`
	TokensUsed *int                `json:"tokens_used"`
	CostUSD    decimal.NullDecimal `gorm:"column:cost_usd;type:numeric(10,6)" json:"cost_usd"`
	CreatedAt  time.Time           `gorm:"not null" json:"created_at"`
}

func (d *PlayerDescription) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// All lists the tables in dependency order, for AutoMigrate.
func All() []any {
	return []any{&User{}, &Player{}, &PlayerDescription{}}
}
