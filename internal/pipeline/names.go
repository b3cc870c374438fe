package pipeline

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

const (
	defaultIndexName = "bulletins"
	defaultPageName  = "feed"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|\s]+`)
	schemePrefix        = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
)

// Normalize trims rawURL and prepends scheme when it has none.
func Normalize(rawURL, scheme string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	if !schemePrefix.MatchString(rawURL) {
		rawURL = scheme + "://" + strings.TrimPrefix(rawURL, "//")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse url %q: missing host", rawURL)
	}

	return u, nil
}

// IndexFilename is name, or the last path segment of u without ".html".
func IndexFilename(name string, u *url.URL) string {
	if strings.TrimSpace(name) == "" {
		segments := lo.Compact(strings.Split(u.Path, "/"))
		if len(segments) > 0 {
			name = strings.TrimSuffix(segments[len(segments)-1], ".html")
		}
	}

	return SafeFilename(lo.CoalesceOrEmpty(strings.TrimSpace(name), defaultIndexName))
}

// PageFilename is name, or the host of u.
func PageFilename(name string, u *url.URL) string {
	return SafeFilename(lo.CoalesceOrEmpty(strings.TrimSpace(name), u.Host, defaultPageName))
}

// SafeFilename replaces path separators, reserved characters and whitespace
// runs with "_" and appends ".xml" when missing.
func SafeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if !strings.HasSuffix(strings.ToLower(name), ".xml") {
		name += ".xml"
	}

	return name
}
