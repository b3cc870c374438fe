// Package model defines the data structures shared by the feedMaker pipeline: Bulletin, Channel and PageMeta. They live only for the duration of one generation run.
package model

import "time"

// Bulletin is one publication entry detected on an index page.
type Bulletin struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
	GUID        string
	Category    string
	Author      string
}

// Channel is the feed-level metadata wrapping the bulletins.
type Channel struct {
	Title       string
	Link        string
	Description string
	LastBuild   time.Time
	Category    string
	Author      string
	Items       []Bulletin
}

// PageMeta is what the metadata extractor finds on a page.
type PageMeta struct {
	Title       string
	Description string
	Category    string
	Author      string
}
