// Package fetcher downloads HTML pages and decodes them to UTF-8.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxBodySize = 16 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

// ErrTimeout wraps errors caused by the fetch deadline.
var ErrTimeout = errors.New("timeout")

// Document is a fetched page.
type Document struct {
	// URL is the final URL after redirects.
	URL     *url.URL
	HTML    string
	Charset string
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(userAgent string, timeout time.Duration, insecure bool) *Fetcher {
	base := http.DefaultTransport
	if insecure {
		base = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	return &Fetcher{
		client: &http.Client{
			Transport: base,
			Timeout:   timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch makes a single GET attempt. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Document{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if isTimeout(err) {
			return Document{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Document{}, fmt.Errorf("read body: %w", err)
	}

	html, name := Decode(data, resp.Header.Get("Content-Type"))

	return Document{
		URL:     resp.Request.URL,
		HTML:    html,
		Charset: name,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
