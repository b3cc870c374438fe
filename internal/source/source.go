// Package source extracts bulletin listings from index pages. Two strategies
// share one contract: TreeScraper walks a parsed document, PatternScraper
// scans raw markup with regular expressions.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/0x0BSoD/feedMaker/internal/model"
)

var ErrUnknownStrategy = errors.New("unknown scraper strategy")

const (
	StrategyTree    = "tree"
	StrategyPattern = "pattern"
)

// Page is a fetched index page.
type Page struct {
	URL  *url.URL
	HTML string
	// GeneratedAt is used as the publication date when none is found.
	GeneratedAt time.Time
}

// Scraper turns an index page into bulletins, newest first.
type Scraper interface {
	Bulletins(page Page) ([]model.Bulletin, error)
}

// Options tune the relevance and noise filters. Zero values take the
// strategy defaults.
type Options struct {
	Keywords   []string
	MinTextLen int
}

// New returns the scraper for strategy.
func New(strategy string, opts Options) (Scraper, error) {
	switch strategy {
	case StrategyTree, "":
		return NewTreeScraper(opts), nil
	case StrategyPattern:
		return NewPatternScraper(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
