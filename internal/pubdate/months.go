package pubdate

import (
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"
)

// frenchMonths maps French month names, with and without accents, to their number.
var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

var (
	frenchDateRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:er)?\s+(` + monthAlternation() + `)\s+(\d{4})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	exactNumeric  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
)

// Month returns the month for a French month name, accents optional.
func Month(name string) (time.Month, bool) {
	m, ok := frenchMonths[strings.ToLower(name)]
	return m, ok
}

func monthAlternation() string {
	names := slices.Sorted(maps.Keys(frenchMonths))
	for i, name := range names {
		names[i] = regexp.QuoteMeta(name)
	}
	return strings.Join(names, "|")
}
