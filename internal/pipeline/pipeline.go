// Package pipeline turns web pages into RSS files: fetch, extract, build,
// write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/0x0BSoD/feedMaker/internal/feed"
	"github.com/0x0BSoD/feedMaker/internal/fetcher"
	"github.com/0x0BSoD/feedMaker/internal/meta"
	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/source"
)

var (
	ErrEmptyURL    = errors.New("empty URL")
	ErrNoBulletins = errors.New("no bulletins found")
)

type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetcher.Document, error)
}

type Reporter interface {
	Notify(msg string)
}

type Options struct {
	OutputDir string
	// DefaultScheme is prepended to URLs given without one.
	DefaultScheme string
	// Verify re-reads every feed with an independent parser before it is
	// written; a feed that fails is not written.
	Verify bool
	Now    func() time.Time
}

// Result is a written feed.
type Result struct {
	Path    string
	Channel model.Channel
}

type Pipeline struct {
	fetcher  PageFetcher
	scraper  source.Scraper
	reporter Reporter
	opts     Options
	probe    func(data []byte) (int, error)
}

func New(
	pageFetcher PageFetcher,
	scraper source.Scraper,
	reporter Reporter,
	opts Options,
) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.DefaultScheme == "" {
		opts.DefaultScheme = "https"
	}

	return &Pipeline{
		fetcher:  pageFetcher,
		scraper:  scraper,
		reporter: reporter,
		opts:     opts,
		probe:    feed.Probe,
	}
}

// Index builds a feed listing every bulletin linked from an index page.
// When no bulletin is found nothing is written and ErrNoBulletins is returned.
func (p *Pipeline) Index(ctx context.Context, rawURL, name string) (Result, error) {
	target, doc, err := p.load(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	now := p.opts.Now().UTC()
	m := meta.Extract(doc.HTML, target.String())

	bulletins, err := p.scraper.Bulletins(source.Page{URL: doc.URL, HTML: doc.HTML, GeneratedAt: now})
	if err != nil {
		return Result{}, fmt.Errorf("extract bulletins: %w", err)
	}
	if len(bulletins) == 0 {
		return Result{}, ErrNoBulletins
	}

	slog.Debug("bulletins extracted", "url", target.String(), "count", len(bulletins), "charset", doc.Charset)

	ch := model.Channel{
		Title:       m.Title,
		Link:        target.String(),
		Description: lo.CoalesceOrEmpty(m.Description, m.Title),
		LastBuild:   now,
		Category:    m.Category,
		Author:      m.Author,
		Items:       bulletins,
	}

	return p.write(ch, IndexFilename(name, target))
}

// Page builds a one-item feed describing the page itself.
func (p *Pipeline) Page(ctx context.Context, rawURL, name string) (Result, error) {
	target, doc, err := p.load(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	now := p.opts.Now().UTC()

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return Result{}, fmt.Errorf("parse page: %w", err)
	}

	link := target.String()
	m := meta.FromDocument(gq, doc.HTML, link)
	summary := meta.Summarize(doc.HTML, doc.URL)

	published, ok := meta.Published(gq)
	if !ok {
		published = now
	}

	description := lo.CoalesceOrEmpty(m.Description, summary.Excerpt, m.Title)

	ch := model.Channel{
		Title:       m.Title,
		Link:        link,
		Description: description,
		LastBuild:   now,
		Items: []model.Bulletin{{
			Title:       m.Title,
			Link:        link,
			Description: description,
			Published:   published.UTC(),
			GUID:        source.GUID(link),
			Category:    m.Category,
			Author:      lo.CoalesceOrEmpty(m.Author, summary.Byline),
		}},
	}

	return p.write(ch, PageFilename(name, target))
}

func (p *Pipeline) load(ctx context.Context, rawURL string) (*url.URL, fetcher.Document, error) {
	target, err := Normalize(rawURL, p.opts.DefaultScheme)
	if err != nil {
		return nil, fetcher.Document{}, err
	}

	doc, err := p.fetcher.Fetch(ctx, target.String())
	if err != nil {
		return nil, fetcher.Document{}, &FetchError{URL: target.String(), Err: err}
	}
	if doc.URL == nil {
		doc.URL = target
	}

	return target, doc, nil
}

func (p *Pipeline) write(ch model.Channel, filename string) (Result, error) {
	data, err := feed.Build(ch)
	if err != nil {
		return Result{}, err
	}

	path := filepath.Join(p.opts.OutputDir, filename)

	if p.opts.Verify {
		n, err := p.probe(data)
		if err != nil {
			return Result{}, fmt.Errorf("verify %s: %w", path, err)
		}
		if n != len(ch.Items) {
			slog.Warn("feed item count mismatch", "path", path, "built", len(ch.Items), "parsed", n)
		}
	}

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return Result{}, &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Result{}, &WriteError{Path: path, Err: err}
	}

	slog.Info("feed written", "url", ch.Link, "path", path, "items", len(ch.Items))

	return Result{Path: path, Channel: ch}, nil
}
