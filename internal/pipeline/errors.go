package pipeline

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/0x0BSoD/feedMaker/internal/fetcher"
)

// FetchError is a failed download of URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError is a feed that could not be saved.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Reason renders err as the short failure text shown for a row.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var (
		statusErr *fetcher.StatusError
		writeErr  *WriteError
		fetchErr  *FetchError
		urlErr    *url.Error
		netErr    net.Error
	)

	switch {
	case errors.Is(err, ErrEmptyURL):
		return ErrEmptyURL.Error()
	case errors.Is(err, ErrNoBulletins):
		return ErrNoBulletins.Error()
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.As(err, &writeErr):
		return writeErr.Error()
	case errors.Is(err, fetcher.ErrTimeout):
		if errors.As(err, &fetchErr) {
			return fetchErr.Err.Error()
		}
		return err.Error()
	case errors.As(err, &fetchErr) && (errors.As(err, &urlErr) || errors.As(err, &netErr)):
		return "network: " + fetchErr.Err.Error()
	default:
		return err.Error()
	}
}
