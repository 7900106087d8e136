package ingest

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/baseball_stats/internal/models"
)

// RawRecord is one source row keyed by whatever column names the source used.
type RawRecord map[string]string

var ErrRecordRejected = errors.New("record rejected")

type Flag string

const (
	// FlagNameCorrected means the name matched an entry in the corrections table.
	FlagNameCorrected Flag = "name_corrected"
	// FlagNameCorrupted means the name carried an unmapped '?' that was stripped.
	FlagNameCorrupted Flag = "name_corrupted"
)

// FieldRejection is a single field dropped from an otherwise accepted record.
type FieldRejection struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (f FieldRejection) String() string {
	return fmt.Sprintf("%s=%q: %s", f.Field, f.Value, f.Reason)
}

// Outcome is the result of normalizing one record. Player is nil when Rejection is set.
type Outcome struct {
	Row       int
	Player    *models.Player
	Rejection error
	Fields    []FieldRejection
	Flags     []Flag
}

func (o Outcome) Accepted() bool {
	return o.Rejection == nil && o.Player != nil
}

func (o Outcome) Flagged(f Flag) bool {
	for _, have := range o.Flags {
		if have == f {
			return true
		}
	}
	return false
}
