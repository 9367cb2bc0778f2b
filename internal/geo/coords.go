// Package geo extracts photo locations from expanded maps URLs.
package geo

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/pnpdata/harvester/internal/extract"
	"github.com/pnpdata/harvester/internal/harvest"
)

// Result is the payload stored per photo id.
type Result struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	URL string  `json:"url"`
}

// CoordExtractor pulls the coordinate pair out of an expanded maps URL. It
// never touches the network; a URL without coordinates is NotFound.
type CoordExtractor struct {
	logger *zap.Logger
}

// NewCoordExtractor builds a CoordExtractor.
func NewCoordExtractor(logger *zap.Logger) *CoordExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoordExtractor{logger: logger}
}

// Fetch parses the maps URL carried in the item payload.
func (e *CoordExtractor) Fetch(_ context.Context, item harvest.WorkItem) (harvest.Outcome, error) {
	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return harvest.Outcome{}, fmt.Errorf("decode payload for %s: %w", item.Key, err)
	}

	lat, lng, ok := extract.ParseMapsCoords(payload.URL)
	if !ok {
		e.logger.Debug("No coordinates in expanded URL",
			zap.String("photo_id", item.Key),
			zap.String("url", payload.URL),
		)
		return harvest.NotFound(), nil
	}

	result, err := json.Marshal(Result{Lat: lat, Lng: lng, URL: payload.URL})
	if err != nil {
		return harvest.Outcome{}, fmt.Errorf("marshal coordinates for %s: %w", item.Key, err)
	}
	return harvest.Success(result), nil
}
