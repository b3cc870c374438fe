package source

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// DefaultKeywords is the allow-list used when none is configured.
var DefaultKeywords = []string{"bsv", "bulletin"}

// Blacklist holds navigation words; an anchor whose text contains one is noise.
var Blacklist = []string{
	"accéder",
	"menu",
	"recherche",
	"fil d'ariane",
	"fil d'arianne",
	"footer",
	"partager",
	"imprimer",
	"télécharger",
	"retour",
	"suivant",
	"précédent",
}

const (
	treeMinTextLen    = 10
	patternMinTextLen = 15
)

type filter struct {
	keywords   []string
	minTextLen int
}

func newFilter(opts Options, defaultMin int) filter {
	keywords := lo.FilterMap(opts.Keywords, func(k string, _ int) (string, bool) {
		k = strings.ToLower(strings.TrimSpace(k))
		return k, k != ""
	})
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	minLen := opts.MinTextLen
	if minLen <= 0 {
		minLen = defaultMin
	}

	return filter{keywords: keywords, minTextLen: minLen}
}

// relevant reports whether text or href mentions an allow-listed keyword.
func (f filter) relevant(text, href string) bool {
	text, href = strings.ToLower(text), strings.ToLower(href)

	return lo.SomeBy(f.keywords, func(k string) bool {
		return strings.Contains(text, k) || strings.Contains(href, k)
	})
}

// noise reports whether text is too short or looks like navigation.
func (f filter) noise(text string) bool {
	if utf8.RuneCountInString(text) < f.minTextLen {
		return true
	}

	text = strings.ToLower(text)

	return lo.SomeBy(Blacklist, func(word string) bool {
		return strings.Contains(text, word)
	})
}

// keep applies both filters.
func (f filter) keep(text, href string) bool {
	return f.relevant(text, href) && !f.noise(text)
}
