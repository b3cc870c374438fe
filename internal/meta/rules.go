package meta

import (
	"strings"

	"github.com/samber/lo"
)

// Scope selects the haystacks a Rule is matched against.
type Scope uint8

const (
	ScopeText Scope = 1 << iota
	ScopeURL
)

// Rule assigns Label when every group has at least one needle in the haystack.
type Rule struct {
	Groups [][]string
	Scope  Scope
	Label  string
}

// headWindow is how much of the page is scanned by text rules.
const headWindow = 2000

// CategoryRules are checked in order after explicit meta tags.
var CategoryRules = []Rule{
	{Groups: [][]string{{"viticulture"}}, Scope: ScopeText | ScopeURL, Label: "Viticulture"},
	{Groups: [][]string{{"grandes cultures"}}, Scope: ScopeText, Label: "Grandes Cultures"},
	{Groups: [][]string{{"arboriculture"}}, Scope: ScopeText | ScopeURL, Label: "Arboriculture"},
	{Groups: [][]string{{"maraîchage", "maraichage"}}, Scope: ScopeText, Label: "Maraîchage"},
}

// AuthorRules are checked in order after the author meta tag.
var AuthorRules = []Rule{
	{
		Groups: [][]string{{"draaf", "agriculture.gouv.fr"}, {"auvergne", "rhone-alpes"}},
		Scope:  ScopeURL,
		Label:  "DRAAF Auvergne-Rhône-Alpes",
	},
	{Groups: [][]string{{"draaf", "agriculture.gouv.fr"}}, Scope: ScopeURL, Label: "DRAAF"},
}

// Match returns the label of the first rule matching text or url.
// Both are compared lower-cased.
func Match(rules []Rule, text, url string) (string, bool) {
	text, url = strings.ToLower(text), strings.ToLower(url)

	for _, r := range rules {
		if r.Scope&ScopeText != 0 && r.matches(text) {
			return r.Label, true
		}
		if r.Scope&ScopeURL != 0 && r.matches(url) {
			return r.Label, true
		}
	}

	return "", false
}

func (r Rule) matches(haystack string) bool {
	if haystack == "" || len(r.Groups) == 0 {
		return false
	}

	return lo.EveryBy(r.Groups, func(group []string) bool {
		return lo.SomeBy(group, func(needle string) bool {
			return strings.Contains(haystack, needle)
		})
	})
}
