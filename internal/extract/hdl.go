// Package extract holds the pure string-parsing helpers for the archive's
// identifier and URL formats. They are deliberately free of I/O so each
// harvest source can inject them as payload extractors.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Collections whose HDL URLs show up truncated in the raw exports: the URL
// ends at the collection's leading digit with the item id missing.
var incompleteHDLPrefixes = []struct {
	fragment   string
	collection string
}{
	{"/fsac.1", "fsac"},
	{"/cph.3", "cph"},
	{"/pan.6", "pan"},
}

var hdlCompleteSuffix = map[string]*regexp.Regexp{}

func init() {
	for _, p := range incompleteHDLPrefixes {
		hdlCompleteSuffix[p.collection] = regexp.MustCompile(regexp.QuoteMeta(p.fragment) + `[a-zA-Z0-9]+`)
	}
}

// IncompleteHDLCollection reports which collection an HDL URL belongs to
// when the URL is truncated before the item id. ok is false for complete
// URLs and for URLs outside the known collections.
func IncompleteHDLCollection(hdlURL string) (collection string, ok bool) {
	if hdlURL == "" {
		return "", false
	}
	for _, p := range incompleteHDLPrefixes {
		if !strings.Contains(hdlURL, p.fragment) {
			continue
		}
		if hdlCompleteSuffix[p.collection].MatchString(hdlURL) {
			return "", false
		}
		return p.collection, true
	}
	return "", false
}

// CompleteHDLURL recovers the full hdl.loc.gov URL for a collection from a
// record's free-text description, where the archive repeats the identifier
// verbatim. Returns the URL with an http scheme prepended when absent.
func CompleteHDLURL(description, collection string) (string, bool) {
	if description == "" || collection == "" {
		return "", false
	}
	pattern := regexp.MustCompile(
		fmt.Sprintf(`(?i)(https?://)?hdl\.loc\.gov/loc\.pnp/%s\.\w+`, regexp.QuoteMeta(collection)),
	)
	match := pattern.FindString(description)
	if match == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(match), "http") {
		match = "http://" + match
	}
	return match, true
}
