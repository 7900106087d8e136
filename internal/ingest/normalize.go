package ingest

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/Skotchmaster/baseball_stats/internal/domain"
	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/shopspring/decimal"
)

// Normalizer turns raw records into players using an alias table.
type Normalizer struct {
	fields      map[string][]string
	corrections map[string]string
}

func NewNormalizer(a *Aliases) (*Normalizer, error) {
	if a == nil {
		var err error
		if a, err = DefaultAliases(); err != nil {
			return nil, err
		}
	} else if err := a.check(); err != nil {
		return nil, err
	}

	fields := make(map[string][]string, len(a.Fields))
	for field, aliases := range a.Fields {
		keys := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			keys = append(keys, normalizeKey(alias))
		}
		fields[field] = keys
	}
	return &Normalizer{fields: fields, corrections: foldCorrections(a.Corrections)}, nil
}

// lookup returns the value of the first alias of field that carries a real value.
func (n *Normalizer) lookup(rec map[string]string, field string) (string, bool) {
	for _, key := range n.fields[field] {
		v, ok := rec[key]
		if ok && !IsPlaceholder(v) {
			return v, true
		}
	}
	return "", false
}

// foldKeys maps raw keys to their normalized form. When several keys fold to
// the same name the one already in normalized form wins, then the smallest
// raw key, so a payload always yields the same record.
func foldKeys(raw RawRecord) map[string]string {
	keys := slices.Sorted(maps.Keys(raw))
	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(foldRank(a), foldRank(b))
	})

	rec := make(map[string]string, len(raw))
	for _, k := range keys {
		key := normalizeKey(k)
		if prev, ok := rec[key]; ok && !IsPlaceholder(prev) {
			continue
		}
		rec[key] = raw[k]
	}
	return rec
}

func foldRank(k string) int {
	if k == normalizeKey(k) {
		return 0
	}
	return 1
}

// Normalize never fails: a record without a usable name comes back with
// Rejection set, every other problem drops just the offending field.
func (n *Normalizer) Normalize(row int, raw RawRecord) Outcome {
	out := Outcome{Row: row}

	rec := foldKeys(raw)

	rawName, ok := n.lookup(rec, FieldPlayerName)
	if !ok {
		out.Rejection = fmt.Errorf("%w: player_name is missing", ErrRecordRejected)
		return out
	}
	name, flags := sanitizeName(rawName, n.corrections)
	out.Flags = flags
	if name == "" {
		out.Rejection = fmt.Errorf("%w: player_name %q is empty after cleanup", ErrRecordRejected, rawName)
		return out
	}
	if utf8.RuneCountInString(name) > domain.MaxPlayerNameLen {
		out.Rejection = fmt.Errorf("%w: player_name longer than %d characters", ErrRecordRejected, domain.MaxPlayerNameLen)
		return out
	}

	p := &models.Player{PlayerName: name}
	reject := func(field, value string, err error) {
		out.Fields = append(out.Fields, FieldRejection{Field: field, Value: value, Reason: err.Error()})
	}

	if v, ok := n.lookup(rec, FieldPosition); ok {
		pos := domain.NormalizePosition(collapseSpace(v))
		if utf8.RuneCountInString(pos) > domain.MaxPositionLen {
			reject(FieldPosition, v, fmt.Errorf("longer than %d characters", domain.MaxPositionLen))
		} else {
			p.Position = &pos
		}
	}

	for _, field := range domain.CountingStats {
		v, ok := n.lookup(rec, field)
		if !ok {
			continue
		}
		c, err := parseCount(v)
		if err != nil {
			reject(field, v, err)
			continue
		}
		*countSlot(p, field) = &c
	}

	for _, field := range domain.RateStats {
		v, ok := n.lookup(rec, field)
		if !ok {
			continue
		}
		d, err := parseRate(field, v)
		if err != nil {
			reject(field, v, err)
			continue
		}
		*rateSlot(p, field) = decimal.NewNullDecimal(d)
	}

	out.Player = p
	return out
}

func countSlot(p *models.Player, field string) **int {
	switch field {
	case "games":
		return &p.Games
	case "at_bats":
		return &p.AtBats
	case "runs":
		return &p.Runs
	case "hits":
		return &p.Hits
	case "doubles":
		return &p.Doubles
	case "triples":
		return &p.Triples
	case "home_runs":
		return &p.HomeRuns
	case "rbis":
		return &p.RBIs
	case "walks":
		return &p.Walks
	case "strikeouts":
		return &p.Strikeouts
	case "stolen_bases":
		return &p.StolenBases
	case "caught_stealing":
		return &p.CaughtStealing
	}
	panic("ingest: unknown counting stat " + field)
}

func rateSlot(p *models.Player, field string) *decimal.NullDecimal {
	switch field {
	case "batting_average":
		return &p.BattingAverage
	case "on_base_percentage":
		return &p.OnBasePercentage
	case "slugging_percentage":
		return &p.SluggingPercentage
	case "ops":
		return &p.OPS
	}
	panic("ingest: unknown rate stat " + field)
}
