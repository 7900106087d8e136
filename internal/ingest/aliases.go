package ingest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/Skotchmaster/baseball_stats/internal/domain"
	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

const (
	FieldPlayerName = "player_name"
	FieldPosition   = "position"
)

//go:embed aliases.yaml
var defaultAliases []byte

// Aliases is the mapping from canonical player fields to the source keys that may carry them,
// plus the table of known corrupted names.
type Aliases struct {
	Fields      map[string][]string `yaml:"fields"`
	Corrections map[string]string   `yaml:"corrections"`
}

// DefaultAliases returns the table compiled into the binary.
func DefaultAliases() (*Aliases, error) {
	return parseAliases(defaultAliases)
}

// LoadAliases reads an alias table from path. An empty path yields the default table.
func LoadAliases(path string) (*Aliases, error) {
	if path == "" {
		return DefaultAliases()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	return parseAliases(raw)
}

func parseAliases(raw []byte) (*Aliases, error) {
	var a Aliases
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return &a, nil
}

func canonicalFields() mapset.Set[string] {
	s := mapset.NewSet(FieldPlayerName, FieldPosition)
	for _, name := range domain.CountingStats {
		s.Add(name)
	}
	for _, name := range domain.RateStats {
		s.Add(name)
	}
	return s
}

func (a *Aliases) check() error {
	if len(a.Fields[FieldPlayerName]) == 0 {
		return errors.New("alias table: player_name needs at least one alias")
	}
	known := canonicalFields()
	for field, aliases := range a.Fields {
		if !known.Contains(field) {
			return fmt.Errorf("alias table: unknown field %q", field)
		}
		for _, alias := range aliases {
			if normalizeKey(alias) == "" {
				return fmt.Errorf("alias table: empty alias for %q", field)
			}
		}
	}
	return nil
}

// normalizeKey folds a source key so "Home Runs", "home_runs" and "HOME-RUNS" compare equal.
func normalizeKey(k string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(k) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}
