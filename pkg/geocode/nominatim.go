package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/monitoring"
	"github.com/watchdna/storeharvester/pkg/tracing"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

const cacheSize = 512

// noneMarker is stored in the cache for a lookup that resolved to
// "none", so a failure is memoized too and doesn't retry within a run.
var noneMarker = Coord{Lat: 9999, Lng: 9999}

// Nominatim is the concrete Adapter backing geocode lookups: one
// request per second (global to the adapter), an LRU memo keyed on
// the lowercased concatenation of the address fields, and
// singleflight collapsing of concurrent identical lookups.
type Nominatim struct {
	fetcher *httpfetch.Fetcher
	cache   *lru.Cache[string, Coord]
	group   singleflight.Group
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewNominatim creates a Nominatim-backed Adapter. fetcher supplies
// the User-Agent and retry/backoff contract every call shares with
// C1.
func NewNominatim(fetcher *httpfetch.Fetcher, logger *slog.Logger) *Nominatim {
	if logger == nil {
		logger = slog.Default()
	}
	c, _ := lru.New[string, Coord](cacheSize)
	return &Nominatim{
		fetcher: fetcher,
		cache:   c,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  logger,
	}
}

// Geocode implements Adapter.
func (n *Nominatim) Geocode(ctx context.Context, line1, city, state, country string) (Coord, bool) {
	key := memoKey(line1, city, state, country)

	if c, ok := n.cache.Get(key); ok {
		tracing.AddEvent(ctx, "geocode_cache_hit")
		monitoring.RecordGeocodeCall("cache_hit")
		if c == noneMarker {
			return Coord{}, false
		}
		return c, true
	}

	v, err, _ := n.group.Do(key, func() (interface{}, error) {
		return n.lookup(ctx, line1, city, state, country)
	})
	if err != nil {
		n.cache.Add(key, noneMarker)
		n.logger.Debug("geocode failed", "key", key, "error", err)
		monitoring.RecordGeocodeCall("miss")
		return Coord{}, false
	}

	coord := v.(Coord)
	n.cache.Add(key, coord)
	monitoring.RecordGeocodeCall("hit")
	return coord, true
}

func (n *Nominatim) lookup(ctx context.Context, line1, city, state, country string) (Coord, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return Coord{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "geocode.lookup",
		trace.WithAttributes(attribute.String(tracing.AttrServiceName, tracing.ServiceGeocoder)))
	defer span.End()

	address := buildAddress(line1, city, state, country)
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	payload, err := n.fetcher.Fetch(ctx, nominatimBaseURL+"?"+q.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return Coord{}, err
	}
	if !payload.IsJSON {
		return Coord{}, fmt.Errorf("geocode: non-JSON response")
	}

	results, ok := payload.JSON.([]interface{})
	if !ok || len(results) == 0 {
		return Coord{}, fmt.Errorf("geocode: no results for %q", address)
	}
	first, ok := results[0].(map[string]interface{})
	if !ok {
		return Coord{}, fmt.Errorf("geocode: unexpected result shape")
	}

	lat, latOK := parseFloat(first["lat"])
	lon, lonOK := parseFloat(first["lon"])
	if !latOK || !lonOK {
		return Coord{}, fmt.Errorf("geocode: missing coordinates in result")
	}

	return Coord{Lat: lat, Lng: lon}, nil
}

func buildAddress(line1, city, state, country string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{line1, city, state, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func parseFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
