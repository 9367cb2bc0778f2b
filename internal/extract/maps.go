package extract

import (
	"regexp"
	"strconv"
)

// Expanded Google Maps URLs embed the viewport as "@lat,lng,zoom".
var mapsCoordsPattern = regexp.MustCompile(`@(-?\d+\.?\d*),(-?\d+\.?\d*)`)

// ParseMapsCoords extracts the latitude/longitude pair from an expanded maps
// URL. ok is false when the URL carries no @lat,lng segment.
func ParseMapsCoords(rawURL string) (lat, lng float64, ok bool) {
	m := mapsCoordsPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
