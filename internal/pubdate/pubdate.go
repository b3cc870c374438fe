// Package pubdate turns free-text and machine-readable date expressions found on
// bulletin pages into publication timestamps.
//
// Nothing here returns an error: a value that cannot be read is a miss, and the
// caller decides what to substitute (usually the generation time).
package pubdate

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RFC822GMT is the layout used for pubDate and lastBuildDate.
const RFC822GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

// Format renders t as an RFC 822 date of the equivalent UTC instant.
func Format(t time.Time) string {
	return t.UTC().Format(RFC822GMT)
}

// Kind tells Lookup how to read a candidate value.
type Kind int

const (
	KindAttr Kind = iota
	KindText
)

// Candidate is one place a date may be found.
type Candidate struct {
	Kind  Kind
	Value string
}

// Attr is a machine-readable candidate, e.g. a time element's datetime attribute.
func Attr(v string) Candidate { return Candidate{Kind: KindAttr, Value: v} }

// Text is a free-text candidate, e.g. an anchor label.
func Text(v string) Candidate { return Candidate{Kind: KindText, Value: v} }

// Lookup tries candidates in order and returns the first date found.
func Lookup(candidates ...Candidate) (time.Time, bool) {
	for _, c := range candidates {
		if strings.TrimSpace(c.Value) == "" {
			continue
		}

		var (
			t  time.Time
			ok bool
		)
		switch c.Kind {
		case KindAttr:
			t, ok = ParseAttr(c.Value)
		default:
			t, ok = ParseText(c.Value)
		}
		if ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseAttr reads a structured date value: dd/mm/yyyy, ISO 8601 (a trailing Z
// is UTC, naive values are taken as UTC) or RFC 822.
func ParseAttr(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := exactNumeric.FindStringSubmatch(s); m != nil {
		return civil(m[3], month(m[2]), m[1])
	}

	if t, ok := parseAny(s); ok {
		return t, true
	}

	return parseRFC822(s)
}

// ParseText looks for a date inside free text: a French long date
// ("22 juillet 2025"), then d/m/yyyy or d-m-yyyy, then the whole text as an
// RFC 822 date. Only the first match of each form is considered; an impossible
// calendar date rejects it and the next form is tried.
func ParseText(s string) (time.Time, bool) {
	if m := frenchDateRe.FindStringSubmatch(s); m != nil {
		if mon, ok := Month(m[2]); ok {
			if t, ok := civil(m[3], mon, m[1]); ok {
				return t, true
			}
		}
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		if t, ok := civil(m[3], month(m[2]), m[1]); ok {
			return t, true
		}
	}

	return parseRFC822(strings.TrimSpace(s))
}

// civil builds midnight UTC for year/month/day, rejecting values that
// time.Date would silently normalize (31 April, 32 July...).
func civil(year string, mon time.Month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	if mon < time.January || mon > time.December || d < 1 || d > 31 {
		return time.Time{}, false
	}

	t := time.Date(y, mon, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != mon {
		return time.Time{}, false
	}

	return t, true
}

func month(s string) time.Month {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return time.Month(n)
}

// parseAny wraps dateparse, which has been known to panic on odd input.
func parseAny(s string) (t time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return parsed.UTC(), true
}

func parseRFC822(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	t, err := mail.ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}
