package extract

import "regexp"

// Catalog item URLs carry the LCCN as the path segment after /item/.
var itemLCCNPattern = regexp.MustCompile(`/item/(\d+)/?`)

// LCCNFromItemURL pulls the LCCN out of a catalog item URL, e.g.
// https://www.loc.gov/item/2023868470/ -> 2023868470.
func LCCNFromItemURL(rawURL string) (string, bool) {
	m := itemLCCNPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}
