package meta

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

var redundantSpaces = regexp.MustCompile(`\s{2,}`)

// Summary is the readable excerpt of an article page.
type Summary struct {
	Excerpt string
	Byline  string
}

// Summarize runs readability over html. Failures give an empty Summary.
func Summarize(html string, pageURL *url.URL) Summary {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return Summary{}
	}

	return Summary{
		Excerpt: cleanupText(article.Excerpt),
		Byline:  cleanupText(article.Byline),
	}
}

func cleanupText(text string) string {
	return strings.TrimSpace(redundantSpaces.ReplaceAllString(text, " "))
}
