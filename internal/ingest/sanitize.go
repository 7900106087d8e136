package ingest

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/unicode/norm"
)

var placeholders = mapset.NewSet("", "--", "-", "n/a", "na", "null", "none", ".", "..")

// IsPlaceholder reports whether v stands in for a missing value.
func IsPlaceholder(v string) bool {
	return placeholders.Contains(strings.ToLower(strings.TrimSpace(v)))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeName applies the corrections table, strips any remaining '?' and
// returns the NFC form of the result.
func sanitizeName(raw string, corrections map[string]string) (string, []Flag) {
	var flags []Flag
	name := collapseSpace(raw)
	if fixed, ok := corrections[name]; ok {
		name = collapseSpace(fixed)
		flags = append(flags, FlagNameCorrected)
	}
	if strings.ContainsRune(name, '?') {
		name = collapseSpace(strings.ReplaceAll(name, "?", ""))
		flags = append(flags, FlagNameCorrupted)
	}
	return norm.NFC.String(name), flags
}

func foldCorrections(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for bad, good := range in {
		out[collapseSpace(bad)] = good
	}
	return out
}
