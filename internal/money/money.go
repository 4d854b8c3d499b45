// Package money formats and parses Vietnamese dong amounts. VND has no minor
// unit, so amounts are whole numbers grouped with dots.
package money

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
)

const vndFormat = "#.###,"

// Round drops fractions the way amounts are shown.
func Round(v float64) int64 {
	return int64(math.Round(v))
}

// Format renders 1234567 as "1.234.567".
func Format(v int64) string {
	return humanize.FormatInteger(vndFormat, int(v))
}

// FormatVND renders 1234567 as "1.234.567 ₫".
func FormatVND(v float64) string {
	return Format(Round(v)) + " ₫"
}

// Parse accepts what Format and FormatVND produce, plus bare digits and
// stray spaces typed into an input. Anything else is a syntax error.
func Parse(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "₫")
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		case r == '.' || r == ' ' || r == '\u00a0':
		default:
			return 0, strconv.ErrSyntax
		}
	}
	if b.Len() == 0 || b.String() == "-" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(b.String(), 10, 64)
}

// Amount is a whole dong amount taken from user input. JSON numbers are
// rounded; strings and form values go through Parse, so "50.000 ₫" reads as
// 50000. Blank input is zero.
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return a.UnmarshalText([]byte(s))
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*a = Amount(Round(f))
	return nil
}

func (a *Amount) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*a = 0
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// String groups the amount for display and for prefilling inputs.
func (a Amount) String() string { return Format(int64(a)) }
