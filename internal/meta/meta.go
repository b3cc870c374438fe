// Package meta extracts page-level metadata (title, description, category,
// author, publication date) from an HTML page.
package meta

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/pubdate"
)

// Extract returns the page metadata. Title is never empty: it falls back to
// og:title and then to pageURL itself.
func Extract(html, pageURL string) model.PageMeta {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.PageMeta{Title: pageURL}
	}

	return FromDocument(doc, html, pageURL)
}

// FromDocument is Extract for an already parsed document. raw is the page
// source the keyword rules are scanned over.
func FromDocument(doc *goquery.Document, raw, pageURL string) model.PageMeta {
	m := model.PageMeta{
		Title:       title(doc),
		Description: firstMeta(doc, `meta[name="description"]`, `meta[property="og:description"]`),
	}
	if m.Title == "" {
		m.Title = pageURL
	}

	m.Category = firstMeta(doc, `meta[property="article:section"]`, `meta[name="category"]`)
	if m.Category == "" {
		m.Category, _ = Match(CategoryRules, m.Title+"\n"+head(raw, headWindow), pageURL)
	}

	m.Author = firstMeta(doc, `meta[name="author"]`)
	if m.Author == "" {
		m.Author, _ = Match(AuthorRules, "", pageURL)
	}

	return m
}

// Published looks for the publication date of a single article page.
func Published(doc *goquery.Document) (time.Time, bool) {
	datetime, _ := doc.Find("time[datetime]").First().Attr("datetime")

	return pubdate.Lookup(
		pubdate.Attr(firstMeta(doc, `meta[property="article:published_time"]`)),
		pubdate.Attr(firstMeta(doc, `meta[name="published"]`)),
		pubdate.Attr(firstMeta(doc, `meta[name="date"]`)),
		pubdate.Attr(datetime),
		pubdate.Text(collapse(doc.Find("body").Text())),
	)
}

func title(doc *goquery.Document) string {
	if t := collapse(doc.Find("title").First().Text()); t != "" {
		return t
	}

	return firstMeta(doc, `meta[property="og:title"]`)
}

// firstMeta returns the trimmed content of the first selector that has one.
func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// head returns at most n characters of s.
func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}

	return s
}
