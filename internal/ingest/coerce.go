package ingest

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Skotchmaster/baseball_stats/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	errNotInteger = errors.New("not an integer")
	errNegative   = errors.New("must not be negative")
	errNotDecimal = errors.New("not a decimal number")
)

// parseCount reads a counting stat. Thousands separators are allowed.
func parseCount(v string) (int, error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	n, err := strconv.Atoi(v)
	if err != nil {
		// JSON feeds sometimes send 12.0 for 12.
		d, derr := decimal.NewFromString(v)
		if derr != nil || !d.IsInteger() || !d.Abs().LessThan(decimal.NewFromInt(1<<31)) {
			return 0, errNotInteger
		}
		n = int(d.IntPart())
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}

// parseRate reads a rate stat and checks it against the field's range. Values
// outside the range are an error, never clamped.
func parseRate(field, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Decimal{}, errNotDecimal
	}
	if err := domain.CheckRate(field, d); err != nil {
		return decimal.Decimal{}, err
	}
	return d.Round(3), nil
}
