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

// bbox is a lat/lng bounding box.
type bbox struct {
	minLat, maxLat, minLng, maxLng float64
}

// regionPreset is one or more bounding boxes, each tiled into a grid
// of cellSize-degree cells. Every built-in preset below is a single
// box ("europe" included); the boxes carry no names.
type regionPreset struct {
	boxes    []bbox
	cellSize float64 // degrees per grid cell when tiling a box
}

// RegionPresets mirrors the viewport-grid presets the original
// scraper's generate_world_grid/generate_focused_grid/
// generate_country_grid offered, expressed as tileable bounding boxes.
var RegionPresets = map[string]regionPreset{
	"world": {
		boxes:    []bbox{{-85, 85, -180, 180}},
		cellSize: 20,
	},
	"north_america": {
		boxes:    []bbox{{15, 72, -168, -52}},
		cellSize: 10,
	},
	"usa": {
		boxes:    []bbox{{24, 49, -125, -66}},
		cellSize: 5,
	},
	"europe": {
		boxes:    []bbox{{35, 71, -25, 40}},
		cellSize: 5,
	},
	"uk": {
		boxes:    []bbox{{49, 61, -8, 2}},
		cellSize: 2,
	},
	"asia": {
		boxes:    []bbox{{-10, 55, 60, 150}},
		cellSize: 10,
	},
	"japan": {
		boxes:    []bbox{{24, 46, 123, 146}},
		cellSize: 2,
	},
	"china": {
		boxes:    []bbox{{18, 53, 73, 135}},
		cellSize: 5,
	},
	"australia": {
		boxes:    []bbox{{-44, -10, 112, 154}},
		cellSize: 5,
	},
	"middle_east": {
		boxes:    []bbox{{12, 42, 25, 63}},
		cellSize: 5,
	},
}

func gridCells(r regionPreset) []bbox {
	var cells []bbox
	for _, b := range r.boxes {
		for lat := b.minLat; lat < b.maxLat; lat += r.cellSize {
			for lng := b.minLng; lng < b.maxLng; lng += r.cellSize {
				cells = append(cells, bbox{
					minLat: lat, maxLat: minFloat(lat+r.cellSize, b.maxLat),
					minLng: lng, maxLng: minFloat(lng+r.cellSize, b.maxLng),
				})
			}
		}
	}
	return cells
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

const viewportWorkers = 3

// Viewport implements C7.3: tile a region into a grid and issue one
// call per cell, keyed on whatever bounds-shaped query parameters the
// classifier observed on the seed URL.
type Viewport struct {
	Logger *slog.Logger
	Region string // empty defaults to "world"
}

// Execute implements Executor.
func (v *Viewport) Execute(ctx context.Context, fetcher *httpfetch.Fetcher, targetURL string, dataPath string, profile classify.Profile) ([]rawtree.Record, Stats, error) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return nil, Stats{}, err
	}

	region := v.Region
	if region == "" {
		region = "world"
	}
	preset, ok := RegionPresets[region]
	if !ok {
		preset = RegionPresets["world"]
	}
	cells := gridCells(preset)

	paramStyle := boundsParamStyle(profile.ObservedParams)

	dedup := NewDedup()
	var mu sync.Mutex
	var out []rawtree.Record
	var stats Stats

	limiter := rate.NewLimiter(rate.Every(500*time.Millisecond), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(viewportWorkers)
	for _, cell := range cells {
		cell := cell
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return nil
			}
			u := *base
			q := u.Query()
			applyBoundsParams(q, paramStyle, cell)
			u.RawQuery = q.Encode()

			payload, err := fetcher.Fetch(gctx, u.String(), nil)
			if err != nil {
				return nil // one cell failing doesn't abort the sweep
			}
			records := ExtractRecords(payload, dataPath)

			mu.Lock()
			stats.CellsVisited++
			for _, rec := range records {
				if dedup.Accept(rec) {
					out = append(out, rec)
				} else {
					stats.DedupRejected++
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out, stats, nil
}

type boundsStyle int

const (
	boundsNESW boundsStyle = iota
	boundsLatLngBounds
	boundsCenterRadius
)

func boundsParamStyle(observed map[string]string) boundsStyle {
	if _, ok := observed["ne_lat"]; ok {
		return boundsNESW
	}
	if _, ok := observed["bounds"]; ok {
		return boundsLatLngBounds
	}
	return boundsCenterRadius
}

func applyBoundsParams(q url.Values, style boundsStyle, b bbox) {
	switch style {
	case boundsNESW:
		q.Set("ne_lat", fmt.Sprintf("%.6f", b.maxLat))
		q.Set("ne_lng", fmt.Sprintf("%.6f", b.maxLng))
		q.Set("sw_lat", fmt.Sprintf("%.6f", b.minLat))
		q.Set("sw_lng", fmt.Sprintf("%.6f", b.minLng))
	case boundsLatLngBounds:
		q.Set("bounds", fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", b.minLat, b.minLng, b.maxLat, b.maxLng))
	default:
		centerLat := (b.minLat + b.maxLat) / 2
		centerLng := (b.minLng + b.maxLng) / 2
		q.Set("lat", fmt.Sprintf("%.6f", centerLat))
		q.Set("lng", fmt.Sprintf("%.6f", centerLng))
		q.Set("viewport", "true")
	}
}
