package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

// Report describes a feed file.
type Report struct {
	Title       string
	Link        string
	Description string
	LastBuild   string
	Items       []ReportItem
	// DatedItems counts items published on another day than the inspection day,
	// i.e. items whose date was really found on the page.
	DatedItems  int
	HasCategory bool
	HasAuthor   bool
}

type ReportItem struct {
	Title     string
	Link      string
	Published string
	Category  string
	Author    string
}

// Inspect parses an RSS document and summarizes it. now decides which
// publication dates count as defaulted.
func Inspect(r io.Reader, now time.Time) (*Report, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	rep := &Report{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		LastBuild:   parsed.Updated,
	}

	today := now.UTC().Format(time.DateOnly)
	rep.Items = lo.Map(parsed.Items, func(it *gofeed.Item, _ int) ReportItem {
		ri := ReportItem{
			Title:     it.Title,
			Link:      it.Link,
			Published: it.Published,
		}
		if len(it.Categories) > 0 {
			ri.Category = it.Categories[0]
		}
		if it.Author != nil {
			ri.Author = lo.CoalesceOrEmpty(it.Author.Name, it.Author.Email)
		}
		if it.PublishedParsed != nil && it.PublishedParsed.UTC().Format(time.DateOnly) != today {
			rep.DatedItems++
		}
		return ri
	})

	rep.HasCategory = lo.SomeBy(rep.Items, func(it ReportItem) bool { return it.Category != "" })
	rep.HasAuthor = lo.SomeBy(rep.Items, func(it ReportItem) bool { return it.Author != "" })

	return rep, nil
}

// Probe re-reads a generated document with an independent parser and returns
// its item count.
func Probe(data []byte) (int, error) {
	parsed, err := rss.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("probe feed: %w", err)
	}

	return len(parsed.Items), nil
}
