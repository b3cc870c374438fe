package source

import (
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/pubdate"
)

// contextRadius is how many characters around an anchor are searched for a date.
const contextRadius = 300

var (
	anchorOpenRe = regexp.MustCompile(`(?is)<a\b([^>]*)>`)
	// an anchor body ends at its closing tag or, when that is missing, at the
	// next opening anchor.
	anchorEndRe = regexp.MustCompile(`(?is)</a\s*>|<a\b`)
	hrefRe   = regexp.MustCompile(`(?is)\bhref\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	titleRe  = regexp.MustCompile(`(?is)\btitle\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// PatternScraper finds anchors with regular expressions over raw markup. It
// tolerates broken documents but only sees what the patterns describe.
type PatternScraper struct {
	filter filter
}

func NewPatternScraper(opts Options) *PatternScraper {
	return &PatternScraper{filter: newFilter(opts, patternMinTextLen)}
}

func (s *PatternScraper) Bulletins(page Page) ([]model.Bulletin, error) {
	raw := page.HTML

	var anchors []anchor
	for _, loc := range anchorOpenRe.FindAllStringSubmatchIndex(raw, -1) {
		end := anchorEndRe.FindStringIndex(raw[loc[1]:])
		if end == nil {
			continue
		}
		bodyEnd, anchorEnd := loc[1]+end[0], loc[1]+end[0]
		if strings.HasPrefix(raw[bodyEnd:], "</") {
			anchorEnd = loc[1] + end[1]
		}

		attrs := raw[loc[2]:loc[3]]
		href, ok := attrValue(hrefRe, attrs)
		if !ok {
			continue
		}

		var (
			text     = plainText(raw[loc[1]:bodyEnd])
			title, _ = attrValue(titleRe, attrs)
			around   = window(raw, loc[0], anchorEnd, contextRadius)
		)

		anchors = append(anchors, anchor{
			text: text,
			href: href,
			date: func() (time.Time, bool) {
				return pubdate.Lookup(
					pubdate.Text(text),
					pubdate.Text(title),
					pubdate.Text(plainText(around)),
				)
			},
		})
	}

	return collect(page, s.filter, anchors), nil
}

func attrValue(re *regexp.Regexp, attrs string) (string, bool) {
	m := re.FindStringSubmatch(attrs)
	if m == nil {
		return "", false
	}

	v := m[1]
	if v == "" {
		v = m[2]
	}

	return html.UnescapeString(strings.TrimSpace(v)), true
}

// plainText strips tags, decodes entities and collapses whitespace.
func plainText(s string) string {
	s = html.UnescapeString(tagRe.ReplaceAllString(s, " "))
	return strings.Join(strings.Fields(s), " ")
}

// window returns s[start-radius:end+radius] measured in characters, clamped
// to s and aligned on rune boundaries.
func window(s string, start, end, radius int) string {
	from := start
	for n := 0; n < radius && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(s[:from])
		from -= size
	}

	to := end
	for n := 0; n < radius && to < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[to:])
		to += size
	}

	return s[from:to]
}
