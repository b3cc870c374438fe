package source

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/0x0BSoD/feedMaker/internal/model"
)

// anchor is a link found on the page, before filtering.
type anchor struct {
	text string
	href string
	// date is evaluated only for anchors that survive filtering.
	date func() (time.Time, bool)
}

// collect applies the shared contract: filter, resolve, dedup by absolute
// URL (first wins), date, identify and sort newest first.
func collect(page Page, f filter, anchors []anchor) []model.Bulletin {
	type resolved struct {
		anchor
		link string
	}

	candidates := lo.FilterMap(anchors, func(a anchor, _ int) (resolved, bool) {
		if a.text == "" || !f.keep(a.text, a.href) {
			return resolved{}, false
		}
		link, ok := resolve(page.URL, a.href)
		return resolved{anchor: a, link: link}, ok
	})

	candidates = lo.UniqBy(candidates, func(c resolved) string {
		return c.link
	})

	bulletins := lo.Map(candidates, func(c resolved, _ int) model.Bulletin {
		published, ok := c.date()
		if !ok {
			published = page.GeneratedAt
		}

		return model.Bulletin{
			Title:       c.text,
			Link:        c.link,
			Description: c.text,
			Published:   published.UTC(),
			GUID:        GUID(c.link),
		}
	})

	slices.SortStableFunc(bulletins, func(a, b model.Bulletin) int {
		return b.Published.Compare(a.Published)
	})

	return bulletins
}

// resolve makes href absolute against base. Only http(s) targets are kept.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	return abs.String(), true
}

// GUID is the stable identifier of a bulletin: hex MD5 of its absolute URL.
func GUID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}
