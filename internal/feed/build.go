// Package feed serializes channels to RSS 2.0 and reads generated feeds back
// for verification.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/samber/lo"

	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/pubdate"
)

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// Field order is the element order in the output.
type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Category      string    `xml:"category,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Author      string   `xml:"author,omitempty"`
	Category    string   `xml:"category,omitempty"`
	GUID        *rssGUID `xml:"guid,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Build renders ch as an RSS 2.0 document with an XML declaration.
// Channel-level author and category take precedence over the items' own.
func Build(ch model.Channel) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:         ch.Title,
			Link:          ch.Link,
			Description:   ch.Description,
			LastBuildDate: pubdate.Format(ch.LastBuild),
			Category:      ch.Category,
		},
	}

	doc.Channel.Items = lo.Map(ch.Items, func(b model.Bulletin, _ int) rssItem {
		item := rssItem{
			Title:       b.Title,
			Link:        b.Link,
			Description: b.Description,
			PubDate:     pubdate.Format(b.Published),
			Author:      lo.CoalesceOrEmpty(ch.Author, b.Author),
			Category:    lo.CoalesceOrEmpty(ch.Category, b.Category),
		}
		if b.GUID != "" {
			item.GUID = &rssGUID{IsPermaLink: "false", Value: b.GUID}
		}
		return item
	})

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
