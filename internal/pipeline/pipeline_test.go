package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/feedMaker/internal/feed"
	"github.com/0x0BSoD/feedMaker/internal/fetcher"
	"github.com/0x0BSoD/feedMaker/internal/model"
	"github.com/0x0BSoD/feedMaker/internal/source"
	"github.com/0x0BSoD/feedMaker/internal/tasklist"
)

var now = time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)

const indexPage = `<html><head>
<title>Bulletins de santé du végétal Viticulture</title>
<meta name="description" content="Les BSV viticulture de la région">
<meta name="author" content="DRAAF Test">
</head><body>
<nav><a href="/menu.html">Menu principal des bulletins</a></nav>
<ul>
  <li><a href="/bsv/bsv-no12-du-8-juillet-2025.html">BSV Viticulture n°12 du 8 juillet 2025</a></li>
  <li><a href="/bsv/bsv-no13-du-15-juillet-2025.html">BSV Viticulture n°13 du 15 juillet 2025</a></li>
</ul>
</body></html>`

const articlePage = `<html><head>
<title>BSV Arboriculture n°7</title>
<meta name="description" content="Situation sanitaire des vergers">
<meta property="article:published_time" content="2025-07-03T08:00:00+02:00">
</head><body><p>Tavelure en progression.</p></body></html>`

type stubReporter struct {
	messages []string
}

func (r *stubReporter) Notify(msg string) { r.messages = append(r.messages, msg) }

type panicScraper struct{}

func (panicScraper) Bulletins(source.Page) ([]model.Bulletin, error) { panic("boom") }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/draaf/bsv-viticulture.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/empty.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Vide</title></head><body><a href="/a">Accueil du site</a></body></html>`))
	})
	mux.HandleFunc("/article.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newPipeline(t *testing.T, outDir string, scraper source.Scraper, rep Reporter) *Pipeline {
	t.Helper()

	if scraper == nil {
		var err error
		scraper, err = source.New(source.StrategyTree, source.Options{})
		require.NoError(t, err)
	}

	return New(fetcher.New("feedmaker-test", 2*time.Second, false), scraper, rep, Options{
		OutputDir:     outDir,
		DefaultScheme: "http",
		Verify:        true,
		Now:           func() time.Time { return now },
	})
}

func TestIndex_WritesFeed(t *testing.T) {
	srv := newServer(t)
	dir := filepath.Join(t.TempDir(), "liste_des_flux")

	res, err := newPipeline(t, dir, nil, nil).Index(context.Background(), srv.URL+"/draaf/bsv-viticulture.html", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "bsv-viticulture.xml"), res.Path)
	assert.Equal(t, "Viticulture", res.Channel.Category)
	assert.Equal(t, "DRAAF Test", res.Channel.Author)
	require.Len(t, res.Channel.Items, 2)

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()

	rep, err := feed.Inspect(f, now)
	require.NoError(t, err)

	assert.Equal(t, "Bulletins de santé du végétal Viticulture", rep.Title)
	assert.Equal(t, "Les BSV viticulture de la région", rep.Description)
	assert.Equal(t, srv.URL+"/draaf/bsv-viticulture.html", rep.Link)
	require.Len(t, rep.Items, 2)
	assert.Equal(t, "BSV Viticulture n°13 du 15 juillet 2025", rep.Items[0].Title)
	assert.Equal(t, srv.URL+"/bsv/bsv-no13-du-15-juillet-2025.html", rep.Items[0].Link)
	assert.Equal(t, "Tue, 15 Jul 2025 00:00:00 GMT", rep.Items[0].Published)
	assert.Equal(t, "Viticulture", rep.Items[1].Category)
	assert.Equal(t, 2, rep.DatedItems)
}

func TestIndex_ExplicitNameAndMissingScheme(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	hostOnly := strings.TrimPrefix(srv.URL, "http://")
	res, err := newPipeline(t, dir, nil, nil).Index(context.Background(), hostOnly+"/draaf/bsv-viticulture.html", "Vigne 2025/Auvergne")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Vigne_2025_Auvergne.xml"), res.Path)
	assert.FileExists(t, res.Path)
}

func TestIndex_NoBulletinsWritesNothing(t *testing.T) {
	srv := newServer(t)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := newPipeline(t, dir, nil, nil).Index(context.Background(), srv.URL+"/empty.html", "")
	require.ErrorIs(t, err, ErrNoBulletins)
	assert.Equal(t, "no bulletins found", Reason(err))
	assert.NoDirExists(t, dir)
}

func TestIndex_HTTPError(t *testing.T) {
	srv := newServer(t)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := newPipeline(t, dir, nil, nil).Index(context.Background(), srv.URL+"/missing.html", "")
	require.Error(t, err)
	assert.Equal(t, "HTTP 404 Not Found", Reason(err))
	assert.NoDirExists(t, dir)
}

func TestIndex_EmptyURL(t *testing.T) {
	_, err := newPipeline(t, t.TempDir(), nil, nil).Index(context.Background(), "   ", "")
	require.ErrorIs(t, err, ErrEmptyURL)
	assert.Equal(t, "empty URL", Reason(err))
}

func TestIndex_WriteError(t *testing.T) {
	srv := newServer(t)

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := newPipeline(t, blocker, nil, nil).Index(context.Background(), srv.URL+"/draaf/bsv-viticulture.html", "")
	require.Error(t, err)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.True(t, strings.HasPrefix(Reason(err), "write "+filepath.Join(blocker, "bsv-viticulture.xml")+": "))
}

func TestIndex_VerifyFailureWritesNothing(t *testing.T) {
	srv := newServer(t)
	dir := filepath.Join(t.TempDir(), "out")

	p := newPipeline(t, dir, nil, nil)
	p.probe = func([]byte) (int, error) { return 0, errors.New("unexpected EOF") }

	_, err := p.Index(context.Background(), srv.URL+"/draaf/bsv-viticulture.html", "")
	require.Error(t, err)
	assert.Contains(t, Reason(err), "unexpected EOF")
	assert.NoFileExists(t, filepath.Join(dir, "bsv-viticulture.xml"))
}

func TestPage_WritesSingleItemFeed(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	res, err := newPipeline(t, dir, nil, nil).Page(context.Background(), srv.URL+"/article.html", "")
	require.NoError(t, err)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, strings.ReplaceAll(u.Host, ":", "_")+".xml"), res.Path)

	require.Len(t, res.Channel.Items, 1)
	item := res.Channel.Items[0]
	assert.Equal(t, "BSV Arboriculture n°7", item.Title)
	assert.Equal(t, "Situation sanitaire des vergers", item.Description)
	assert.Equal(t, time.Date(2025, time.July, 3, 6, 0, 0, 0, time.UTC), item.Published)
	assert.Equal(t, source.GUID(srv.URL+"/article.html"), item.GUID)
	assert.Equal(t, "Arboriculture", item.Category)
	assert.Empty(t, res.Channel.Category)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<pubDate>Thu, 03 Jul 2025 06:00:00 GMT</pubDate>")
}

func TestBatch_RecordsFailuresAndContinues(t *testing.T) {
	srv := newServer(t)
	rep := &stubReporter{}

	tasks := []tasklist.Task{
		{Row: 1, URL: srv.URL + "/draaf/bsv-viticulture.html", Name: "vigne"},
		{Row: 2, URL: srv.URL + "/missing.html"},
		{Row: 3, URL: ""},
		{Row: 4, URL: srv.URL + "/empty.html"},
		{Row: 5, URL: srv.URL + "/draaf/bsv-viticulture.html"},
	}

	sum := newPipeline(t, t.TempDir(), nil, rep).Batch(context.Background(), tasks, ModeIndex)

	require.Len(t, sum.OK, 2)
	assert.Equal(t, 1, sum.OK[0].Task.Row)
	assert.True(t, strings.HasSuffix(sum.OK[0].Path, "vigne.xml"))
	assert.True(t, strings.HasSuffix(sum.OK[1].Path, "bsv-viticulture.xml"))

	require.Len(t, sum.Failed, 3)
	assert.Equal(t, "HTTP 404 Not Found", sum.Failed[0].Reason)
	assert.Equal(t, "empty URL", sum.Failed[1].Reason)
	assert.Equal(t, "no bulletins found", sum.Failed[2].Reason)

	require.Len(t, rep.messages, 1)
	assert.Contains(t, rep.messages[0], "2 ok, 3 failed")
	assert.Contains(t, rep.messages[0], "row 3 : empty URL")
}

func TestBatch_RecoversPanics(t *testing.T) {
	srv := newServer(t)

	tasks := []tasklist.Task{
		{Row: 1, URL: srv.URL + "/draaf/bsv-viticulture.html"},
		{Row: 2, URL: srv.URL + "/article.html"},
	}

	sum := newPipeline(t, t.TempDir(), panicScraper{}, nil).Batch(context.Background(), tasks, ModeIndex)
	assert.Empty(t, sum.OK)
	require.Len(t, sum.Failed, 2)
	assert.Equal(t, "panic: boom", sum.Failed[0].Reason)

	sum = newPipeline(t, t.TempDir(), panicScraper{}, nil).Batch(context.Background(), tasks, ModePage)
	assert.Len(t, sum.OK, 2)
	assert.Empty(t, sum.Failed)
}

func TestBatch_NoReportWhenAllSucceed(t *testing.T) {
	srv := newServer(t)
	rep := &stubReporter{}

	sum := newPipeline(t, t.TempDir(), nil, rep).Batch(context.Background(),
		[]tasklist.Task{{Row: 1, URL: srv.URL + "/draaf/bsv-viticulture.html"}}, ModeIndex)

	assert.Len(t, sum.OK, 1)
	assert.Empty(t, rep.messages)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw, want string
	}{
		{"example.org/list.html", "https://example.org/list.html"},
		{"  //example.org/list.html ", "https://example.org/list.html"},
		{"example.org/list.html?next=https://x.org", "https://example.org/list.html?next=https://x.org"},
		{"http://example.org/a", "http://example.org/a"},
		{"HTTPS://example.org/a", "HTTPS://example.org/a"},
	}

	for _, c := range cases {
		u, err := Normalize(c.raw, "https")
		require.NoError(t, err, c.raw)
		assert.Equal(t, "example.org", u.Host, c.raw)
		assert.Equal(t, strings.ToLower(c.want), strings.ToLower(u.String()), c.raw)
	}

	_, err := Normalize("", "https")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestIndexFilename(t *testing.T) {
	parse := func(raw string) *url.URL {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return u
	}

	assert.Equal(t, "liste.xml", IndexFilename("", parse("https://example.org/bsv/liste.html")))
	assert.Equal(t, "v2.html-archive.xml", IndexFilename("", parse("https://example.org/v2.html-archive.html")))
	assert.Equal(t, "bulletins.xml", IndexFilename("", parse("https://example.org/")))
	assert.Equal(t, "Mes_BSV.xml", IndexFilename(" Mes BSV ", parse("https://example.org/liste.html")))
	assert.Equal(t, "feed.XML", SafeFilename("feed.XML"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeIndex, m)

	m, err = ParseMode(" Page ")
	require.NoError(t, err)
	assert.Equal(t, ModePage, m)

	_, err = ParseMode("sitemap")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestReason(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "http://draaf.invalid", Err: errors.New("connection refused")}

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("row: %w", ErrEmptyURL), "empty URL"},
		{&FetchError{URL: "u", Err: &fetcher.StatusError{Code: 500, Status: "500 Internal Server Error"}}, "HTTP 500 Internal Server Error"},
		{&FetchError{URL: "u", Err: fmt.Errorf("%w: deadline", fetcher.ErrTimeout)}, "timeout: deadline"},
		{&FetchError{URL: "u", Err: urlErr}, "network: " + urlErr.Error()},
		{&WriteError{Path: "out/a.xml", Err: errors.New("read-only file system")}, "write out/a.xml: read-only file system"},
		{errors.New("something else"), "something else"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Reason(c.err))
	}
}
