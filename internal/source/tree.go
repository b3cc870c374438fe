package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/pubdate"
)

// TreeScraper walks the parsed document, so it copes with arbitrary nesting.
type TreeScraper struct {
	filter filter
}

func NewTreeScraper(opts Options) *TreeScraper {
	return &TreeScraper{filter: newFilter(opts, treeMinTextLen)}
}

func (s *TreeScraper) Bulletins(page Page) ([]model.Bulletin, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var anchors []anchor
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		anchors = append(anchors, anchor{
			text: collapse(a.Text()),
			href: href,
			date: func() (time.Time, bool) {
				return dateAround(a)
			},
		})
	})

	return collect(page, s.filter, anchors), nil
}

// dateAround tries, in order: an enclosing or sibling time element, the
// anchor text, its title attribute, then the parent's text.
func dateAround(a *goquery.Selection) (time.Time, bool) {
	title, _ := a.Attr("title")
	parent := a.Parent()

	return pubdate.Lookup(
		pubdate.Attr(timeMarker(a, parent)),
		pubdate.Text(collapse(a.Text())),
		pubdate.Text(title),
		pubdate.Text(collapse(parent.Text())),
	)
}

func timeMarker(a, parent *goquery.Selection) string {
	if v, ok := a.Closest("time[datetime]").Attr("datetime"); ok {
		return v
	}

	v, _ := parent.Find("time[datetime]").First().Attr("datetime")

	return v
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
