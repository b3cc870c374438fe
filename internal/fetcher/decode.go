package fetcher

import (
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// minConfidence is the chardet score below which a guess is ignored.
const minConfidence = 50

const fallbackCharset = "utf-8"

// sniffLen matches the prescan window of the HTML encoding sniffing algorithm.
const sniffLen = 1024

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-z0-9_:.\-]+)`)

// Decode converts an HTML body to UTF-8 and returns the charset used.
// The charset comes from, in order: the Content-Type header, a BOM or meta
// declaration, valid UTF-8, statistical detection. Undecodable bytes become
// U+FFFD; decoding never fails.
func Decode(data []byte, contentType string) (string, string) {
	name := declaredCharset(data, contentType)
	if name == "" {
		name = detectCharset(data)
	}

	if enc, canonical, ok := lookup(name); ok {
		if out, err := enc.NewDecoder().Bytes(data); err == nil {
			return strings.ToValidUTF8(string(out), "�"), canonical
		}
	}

	return strings.ToValidUTF8(string(data), "�"), fallbackCharset
}

func declaredCharset(data []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := strings.TrimSpace(params["charset"]); cs != "" {
			if _, _, ok := lookup(cs); ok {
				return cs
			}
		}
	}

	// windows-1252 is what DetermineEncoding answers when it found nothing,
	// so an explicit declaration of it is looked up separately.
	if _, name, certain := charset.DetermineEncoding(data, "text/html"); certain || name != "windows-1252" {
		return name
	}

	head := data[:min(len(data), sniffLen)]
	if m := metaCharsetRe.FindSubmatch(head); m != nil {
		if _, _, ok := lookup(string(m[1])); ok {
			return string(m[1])
		}
	}

	return ""
}

func detectCharset(data []byte) string {
	if utf8.Valid(data) {
		return fallbackCharset
	}

	res, err := chardet.NewHtmlDetector().DetectBest(data)
	if err != nil || res.Confidence < minConfidence {
		return fallbackCharset
	}

	return res.Charset
}

func lookup(name string) (encoding.Encoding, string, bool) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", false
	}

	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}

	return enc, canonical, true
}
