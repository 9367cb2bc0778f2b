package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var wikidataQIDPattern = regexp.MustCompile(`/(?:wiki|entity)/(Q\d+)`)

// QIDFromWikidataURL pulls the QID out of a Wikidata entity URL, e.g.
// https://www.wikidata.org/wiki/Q42 -> Q42.
func QIDFromWikidataURL(rawURL string) (string, bool) {
	m := wikidataQIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseWikipediaURL splits a Wikipedia article URL into its language code
// and page title. URLs on www.wikipedia.org carry the language in the path
// instead of the host and are not handled; ok is false for those and for
// anything that is not a Wikipedia article link.
func ParseWikipediaURL(rawURL string) (lang, title string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	host := u.Hostname()
	if !strings.HasSuffix(host, "wikipedia.org") || host == "wikipedia.org" {
		return "", "", false
	}
	sub, _, found := strings.Cut(host, ".")
	if !found || sub == "www" {
		return "", "", false
	}

	title = strings.TrimPrefix(u.Path, "/wiki/")
	if title == u.Path || title == "" {
		return "", "", false
	}
	return sub, title, true
}
