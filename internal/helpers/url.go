package helpers

import (
	"errors"
	"net/url"
	"strings"
)

// ExpandQuery substitutes the {query} placeholder in a search-URL template
// with the escaped query string. The query is trimmed before escaping; a
// template without the placeholder is returned unchanged.
func ExpandQuery(template, query string) string {
	escaped := url.QueryEscape(strings.TrimSpace(query))
	return strings.ReplaceAll(template, "{query}", escaped)
}

// ResolveHref turns a listing href into an absolute URL. Hrefs from sources
// that emit absolute links are validated and passed through; relative hrefs
// are resolved against the source's base URL.
func ResolveHref(base, href string, absolute bool) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", errors.New("empty href")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}

	if absolute {
		if !ref.IsAbs() {
			return "", errors.New("expected absolute href")
		}
		return ref.String(), nil
	}

	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", err
	}
	if !b.IsAbs() {
		return "", errors.New("base url must be absolute")
	}
	return b.ResolveReference(ref).String(), nil
}

// Truncate shortens s to at most max runes, appending the marker when
// anything was cut. Counting is rune-based so multi-byte titles survive.
func Truncate(s string, max int, marker string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + marker
}
