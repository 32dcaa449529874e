// Package geocode implements the harvester's optional forward-geocoding
// adapter: rate-limited, memoized, singleflight-deduplicated.
package geocode

import (
	"context"
	"strings"
)

// Coord is a geocoded latitude/longitude pair.
type Coord struct {
	Lat, Lng float64
}

// Adapter exposes forward geocoding: a free-form address in, a
// coordinate or none out. The core depends only on this interface;
// the Nominatim-backed implementation lives in this same package but
// nothing downstream constructs it directly except the orchestrator.
type Adapter interface {
	Geocode(ctx context.Context, line1, city, state, country string) (Coord, bool)
}

// None is an Adapter that never resolves anything — the geocoder is
// optional per §4.3; an unconfigured harvest uses this.
type None struct{}

// Geocode always reports no match.
func (None) Geocode(context.Context, string, string, string, string) (Coord, bool) {
	return Coord{}, false
}

func memoKey(line1, city, state, country string) string {
	parts := []string{line1, city, state, country}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}
