package domain

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shopspring/decimal"
)

const (
	MaxPlayerNameLen = 100
	MaxPositionLen   = 50
)

// KnownPositions are upper-cased on input; anything else is stored as given.
var KnownPositions = mapset.NewSet(
	"P", "C", "1B", "2B", "3B", "SS", "LF", "CF", "RF", "OF", "DH", "IF", "UT",
)

// CountingStats are the integer columns of a player, in the order they are stored.
var CountingStats = []string{
	"games", "at_bats", "runs", "hits", "doubles", "triples",
	"home_runs", "rbis", "walks", "strikeouts", "stolen_bases", "caught_stealing",
}

// RateStats are the decimal columns of a player.
var RateStats = []string{"batting_average", "on_base_percentage", "slugging_percentage", "ops"}

// RateCeilings holds the inclusive upper bound of each rate stat. The lower bound is 0.
var RateCeilings = map[string]decimal.Decimal{
	"batting_average":     decimal.NewFromInt(1),
	"on_base_percentage":  decimal.NewFromInt(1),
	"slugging_percentage": decimal.NewFromInt(2),
	"ops":                 decimal.NewFromInt(3),
}

func NormalizePosition(pos string) string {
	pos = strings.TrimSpace(pos)
	if up := strings.ToUpper(pos); KnownPositions.Contains(up) {
		return up
	}
	return pos
}

// CheckRate reports whether v lies inside the closed range of the named rate stat.
func CheckRate(field string, v decimal.Decimal) error {
	ceiling, ok := RateCeilings[field]
	if !ok {
		return fmt.Errorf("unknown rate stat %q", field)
	}
	if v.IsNegative() || v.GreaterThan(ceiling) {
		return fmt.Errorf("%s must be between 0 and %s, got %s", field, ceiling, v)
	}
	return nil
}

// HitsPerGame is hits/games rounded half-up to three places. It is absent when
// either input is missing or no games were played.
func HitsPerGame(hits, games *int) decimal.NullDecimal {
	if hits == nil || games == nil || *games == 0 {
		return decimal.NullDecimal{}
	}
	v := decimal.NewFromInt(int64(*hits)).DivRound(decimal.NewFromInt(int64(*games)), 3)
	return decimal.NewNullDecimal(v)
}
