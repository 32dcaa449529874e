package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/watchdna/storeharvester/pkg/classify"
	"github.com/watchdna/storeharvester/pkg/httpfetch"
	"github.com/watchdna/storeharvester/pkg/rawtree"
)

// city is one probe point for the radius expansion.
type city struct {
	name          string
	lat, lng      float64
}

// ProbeCities is the fixed list of major population centers the
// radius executor sweeps. It's deliberately weighted toward North
// America and Europe, matching the store-locator domain this was
// built for, with enough global coverage that a radius-only back end
// still gets reasonable coverage on every populated continent.
var ProbeCities = []city{
	{"New York", 40.7128, -74.0060}, {"Los Angeles", 34.0522, -118.2437},
	{"Chicago", 41.8781, -87.6298}, {"Houston", 29.7604, -95.3698},
	{"Phoenix", 33.4484, -112.0740}, {"Philadelphia", 39.9526, -75.1652},
	{"San Antonio", 29.4241, -98.4936}, {"San Diego", 32.7157, -117.1611},
	{"Dallas", 32.7767, -96.7970}, {"San Jose", 37.3382, -121.8863},
	{"Austin", 30.2672, -97.7431}, {"Seattle", 47.6062, -122.3321},
	{"Denver", 39.7392, -104.9903}, {"Boston", 42.3601, -71.0589},
	{"Atlanta", 33.7490, -84.3880}, {"Miami", 25.7617, -80.1918},
	{"Minneapolis", 44.9778, -93.2650}, {"Detroit", 42.3314, -83.0458},
	{"Las Vegas", 36.1699, -115.1398}, {"Portland", 45.5152, -122.6784},
	{"Toronto", 43.6532, -79.3832}, {"Montreal", 45.5019, -73.5674},
	{"Vancouver", 49.2827, -123.1207}, {"Calgary", 51.0447, -114.0719},
	{"Mexico City", 19.4326, -99.1332}, {"Guadalajara", 20.6597, -103.3496},
	{"London", 51.5074, -0.1278}, {"Manchester", 53.4808, -2.2426},
	{"Birmingham", 52.4862, -1.8904}, {"Paris", 48.8566, 2.3522},
	{"Marseille", 43.2965, 5.3698}, {"Berlin", 52.5200, 13.4050},
	{"Munich", 48.1351, 11.5820}, {"Hamburg", 53.5511, 9.9937},
	{"Madrid", 40.4168, -3.7038}, {"Barcelona", 41.3874, 2.1686},
	{"Rome", 41.9028, 12.4964}, {"Milan", 45.4642, 9.1900},
	{"Amsterdam", 52.3676, 4.9041}, {"Brussels", 50.8503, 4.3517},
	{"Vienna", 48.2082, 16.3738}, {"Zurich", 47.3769, 8.5417},
	{"Stockholm", 59.3293, 18.0686}, {"Oslo", 59.9139, 10.7522},
	{"Copenhagen", 55.6761, 12.5683}, {"Helsinki", 60.1699, 24.9384},
	{"Warsaw", 52.2297, 21.0122}, {"Dublin", 53.3498, -6.2603},
	{"Lisbon", 38.7223, -9.1393}, {"Athens", 37.9838, 23.7275},
	{"Tokyo", 35.6762, 139.6503}, {"Osaka", 34.6937, 135.5023},
	{"Seoul", 37.5665, 126.9780}, {"Beijing", 39.9042, 116.4074},
	{"Shanghai", 31.2304, 121.4737}, {"Hong Kong", 22.3193, 114.1694},
	{"Singapore", 1.3521, 103.8198}, {"Bangkok", 13.7563, 100.5018},
	{"Mumbai", 19.0760, 72.8777}, {"Delhi", 28.7041, 77.1025},
	{"Sydney", -33.8688, 151.2093}, {"Melbourne", -37.8136, 144.9631},
	{"Auckland", -36.8485, 174.7633}, {"Sao Paulo", -23.5505, -46.6333},
	{"Buenos Aires", -34.6037, -58.3816}, {"Dubai", 25.2048, 55.2708},
	{"Johannesburg", -26.2041, 28.0473},
}

const radiusWorkers = 3
const radiusPagesPerCity = 100

// RadiusExecutor implements C7.4: issue a radius search centered on
// each of ProbeCities, paginating within each city up to
// radiusPagesPerCity pages.
type RadiusExecutor struct {
	Logger *slog.Logger
}

// Execute implements Executor.
func (r *RadiusExecutor) Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return nil, Stats{}, err
	}

	latKey, lngKey, radiusKey := radiusParamKeys(profile.ObservedParams)
	radiusValue := "50"
	if v, ok := profile.ObservedParams[radiusKey]; ok && v != "" {
		radiusValue = v
	}

	var mu sync.Mutex
	dedup := NewDedup()
	var out []rawtree.Record
	var stats Stats

	limiter := rate.NewLimiter(rate.Every(300*time.Millisecond), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(radiusWorkers)
	for _, c := range ProbeCities {
		c := c
		g.Go(func() error {
			for page := 0; page < radiusPagesPerCity; page++ {
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}
				u := *base
				q := u.Query()
				q.Set(latKey, fmt.Sprintf("%.6f", c.lat))
				q.Set(lngKey, fmt.Sprintf("%.6f", c.lng))
				q.Set(radiusKey, radiusValue)
				if page > 0 {
					q.Set("offset", fmt.Sprintf("%d", page*50))
				}
				u.RawQuery = q.Encode()

				payload, err := fetcher.Fetch(gctx, u.String(), nil)
				if err != nil {
					return nil
				}
				records := ExtractRecords(payload, dataPath)
				if len(records) == 0 {
					break
				}

				mu.Lock()
				stats.PagesWalked++
				for _, rec := range records {
					if dedup.Accept(rec) {
						out = append(out, rec)
					} else {
						stats.DedupRejected++
					}
				}
				mu.Unlock()

				if len(records) < 50 {
					break // short page, nothing more for this city
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return out, stats, nil
}

func radiusParamKeys(observed map[string]string) (lat, lng, radius string) {
	lat, lng, radius = "lat", "lng", "radius"
	for k := range observed {
		switch k {
		case "latitude":
			lat = k
		case "longitude":
			lng = k
		case "distance":
			radius = k
		case "r":
			radius = k
		}
	}
	return
}
